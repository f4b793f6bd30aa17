package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Company struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	Name           string       `json:"name" gorm:"type:text;not null"`
	TrialActive    bool         `json:"trial_active" gorm:"not null;default:true"`
	TrialExpiresAt *time.Time   `json:"trial_expires_at"`
	Subscribed     bool         `json:"subscribed" gorm:"not null;default:false"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Company) TableName() string { return "companies" }

type User struct {
	ID                         snowflake.ID `json:"id" gorm:"primaryKey"`
	CompanyID                  snowflake.ID `json:"company_id" gorm:"not null;index"`
	Email                      string       `json:"email" gorm:"type:text;not null"`
	ExpensifyPartnerUserID     string       `json:"-" gorm:"column:expensify_partner_user_id;type:text"`
	ExpensifyPartnerUserSecret string       `json:"-" gorm:"column:expensify_partner_user_secret;type:text"`
	CreatedAt                  time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt                  time.Time    `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string { return "users" }

// IngestionAccount is a user together with its Expensify credentials.
type IngestionAccount struct {
	UserID            snowflake.ID
	CompanyID         snowflake.ID
	PartnerUserID     string
	PartnerUserSecret string
}

func (a IngestionAccount) HasCredentials() bool {
	return strings.TrimSpace(a.PartnerUserID) != "" && strings.TrimSpace(a.PartnerUserSecret) != ""
}
