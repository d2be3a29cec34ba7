package provider

import (
	"travelops-dispatch/pkg/config"
	"travelops-dispatch/services/funnel"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
)

var Module = fx.Module("provider.module",
	fx.Provide(NewSenders),
)

func NewSenders(cfg *config.Config) Senders {
	smsClient := resty.New().SetTimeout(cfg.Provider.SMS.Timeout)
	mailClient := resty.New().SetTimeout(cfg.Provider.Mail.Timeout)

	return Senders{
		funnel.ChannelSMS:   NewSMSGateway(cfg.Provider.SMS.Endpoint, smsClient),
		funnel.ChannelEmail: NewMailRelay(cfg.Provider.Mail.Endpoint, mailClient),
	}
}
