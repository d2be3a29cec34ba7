package funnel

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In

	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// BoundFunnels returns the active funnels bound to a group, stages preloaded
// in send order (sort_order asc, stage_no asc).
func (s *Service) BoundFunnels(ctx context.Context, groupID string) ([]Funnel, error) {
	var funnels []Funnel
	if err := s.db.WithContext(ctx).
		Joins("JOIN group_funnels ON group_funnels.funnel_id = funnels.funnel_id").
		Where("group_funnels.group_id = ?", groupID).
		Where("funnels.active = ?", true).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, stage_no ASC")
		}).
		Find(&funnels).Error; err != nil {
		return nil, err
	}
	return funnels, nil
}

// ByChannel partitions funnels by their channel.
func ByChannel(funnels []Funnel) map[Channel][]Funnel {
	out := make(map[Channel][]Funnel)
	for _, f := range funnels {
		out[f.Channel] = append(out[f.Channel], f)
	}
	return out
}
