package models

import (
	"context"
	"errors"
	"time"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/utils"
)

type Client struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"index;size:200;not null" json:"name"`
	Rut         string    `gorm:"index;size:20" json:"rut"`
	IsBilingual *bool     `gorm:"not null;default:false" json:"is_bilingual"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetClient(ctx context.Context, id int) (*Client, error) {
	db := config.GetDB()
	var client Client
	if err := db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &client, nil
}

func (c *Client) Bilingual() bool {
	return c.IsBilingual != nil && *c.IsBilingual
}

// Period is one accounting closing cycle ("cierre") for one client: the unit
// of ingestion and reporting. Iteration counts re-ingestions of the same
// period and tags incidence snapshots.
type Period struct {
	ID          int          `gorm:"primary_key" json:"id"`
	ClientId    int          `gorm:"index;not null" json:"client_id"`
	ClosingDate time.Time    `gorm:"index;not null" json:"closing_date"`
	Iteration   int          `gorm:"not null;default:0" json:"iteration"`
	Status      PeriodStatus `gorm:"size:20;not null;default:'Open'" json:"status"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetPeriod(ctx context.Context, id int) (*Period, error) {
	db := config.GetDB()
	var period Period
	if err := db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &period, nil
}

func GetPeriodForClient(ctx context.Context, clientId int, id int) (*Period, error) {
	period, err := GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.ClientId != clientId {
		return nil, errors.New("period does not belong to client")
	}
	return period, nil
}
