package models

import (
	"time"

	"telegram-catalog/internal/layout"

	"gorm.io/datatypes"
)

const (
	TemplateTypePost    = "post"
	TemplateTypeStart   = "start"
	TemplateTypeProduct = "product"

	MailoutStatusPending = "pending"
	MailoutStatusSent    = "sent"
	MailoutStatusFailed  = "failed"

	MaxCategoryChildren  = 20
	MaxProductCategories = 3
)

// LayoutColumn stores a keyboard layout as a JSON column.
type LayoutColumn = datatypes.JSONType[layout.Layout]

func NewLayoutColumn(rows layout.Layout) LayoutColumn {
	if rows == nil {
		rows = layout.Layout{}
	}
	return datatypes.NewJSONType(rows)
}

// Bot is a tenant. Every catalog row carries its BotIdentifier.
type Bot struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BotIdentifier string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"bot_identifier"`
	BotCode       string    `gorm:"type:varchar(255)" json:"bot_code"`
	APIKey        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"api_key"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Bot) TableName() string {
	return "bots"
}

type AdminUser struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AdminName     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"admin_name"`
	PasswordHash  string    `gorm:"type:varchar(255);not null" json:"-"`
	BotIdentifier string    `gorm:"type:varchar(100);index" json:"bot_identifier"`
	IsSuper       bool      `gorm:"default:false" json:"is_super"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// Roles mirrors what the admin SPA expects after login.
func (a AdminUser) Roles() []string {
	if a.IsSuper {
		return []string{"ROLE_ADMIN", "ROLE_SUPER_ADMIN"}
	}
	return []string{"ROLE_ADMIN"}
}

type Button struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BotIdentifier string `gorm:"type:varchar(100);index;not null" json:"bot_identifier"`
	Code          string `gorm:"type:varchar(20);not null" json:"code"`
	Label         string `gorm:"type:varchar(60);not null" json:"label"`
	SortOrder     int    `gorm:"default:0" json:"sort_order"`
	ButtonType    string `gorm:"type:varchar(20);not null" json:"button_type"`
	Value         string `gorm:"type:varchar(60)" json:"value"`
}

func (Button) TableName() string {
	return "buttons"
}

func (b Button) LayoutButton() layout.Button {
	return layout.Button{ID: b.ID, Label: b.Label, Type: b.ButtonType, Value: b.Value}
}

type Category struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	BotIdentifier string       `gorm:"type:varchar(100);index;not null" json:"bot_identifier"`
	Name          string       `gorm:"type:varchar(255);not null" json:"name"`
	IsRoot        bool         `gorm:"default:false" json:"is_root"`
	Image         string       `gorm:"type:varchar(255)" json:"image"`
	ImageFileID   string       `gorm:"type:varchar(255)" json:"image_file_id"`
	SortOrder     int          `gorm:"default:0" json:"sort_order"`
	Layout        LayoutColumn `json:"layout"`
	Children      []*Category  `gorm:"many2many:category_children;joinForeignKey:ParentID;joinReferences:ChildID" json:"children,omitempty"`
	Products      []*Product   `gorm:"many2many:product_category" json:"products,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

func (c Category) Entity() layout.Entity {
	return layout.Entity{ID: c.ID, Name: c.Name, BotIdentifier: c.BotIdentifier}
}

type Product struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	BotIdentifier string      `gorm:"type:varchar(100);index;not null" json:"bot_identifier"`
	Name          string      `gorm:"type:varchar(255);not null" json:"name"`
	Description   string      `gorm:"type:text" json:"description"`
	Image         string      `gorm:"type:varchar(255)" json:"image"`
	ImageFileID   string      `gorm:"type:varchar(255)" json:"image_file_id"`
	SortOrder     int         `gorm:"default:0" json:"sort_order"`
	Categories    []*Category `gorm:"many2many:product_category" json:"categories,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

func (p Product) Entity() layout.Entity {
	return layout.Entity{ID: p.ID, Name: p.Name, BotIdentifier: p.BotIdentifier}
}

type Template struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	BotIdentifier string       `gorm:"type:varchar(100);index;not null" json:"bot_identifier"`
	Name          string       `gorm:"type:varchar(100);not null" json:"name"`
	Type          string       `gorm:"type:varchar(20);index;not null" json:"type"`
	Layout        LayoutColumn `json:"layout"`
}

func (Template) TableName() string {
	return "templates"
}

type Post struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BotIdentifier string `gorm:"type:varchar(100);index;not null" json:"bot_identifier"`
	Name          string `gorm:"type:varchar(255);not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	Image         string `gorm:"type:varchar(255)" json:"image"`
	ImageFileID   string `gorm:"type:varchar(255)" json:"image_file_id"`
	TemplateType  string `gorm:"type:varchar(20);not null" json:"template_type"`
	Enabled       bool   `gorm:"not null" json:"enabled"`
}

func (Post) TableName() string {
	return "posts"
}

// User is a Telegram user who talked to a bot.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BotIdentifier string    `gorm:"type:varchar(100);uniqueIndex:idx_user_bot_chat;not null" json:"bot_identifier"`
	ChatID        string    `gorm:"type:varchar(64);uniqueIndex:idx_user_bot_chat;not null" json:"chat_id"`
	Name          string    `gorm:"type:varchar(255)" json:"name"`
	Username      string    `gorm:"type:varchar(255)" json:"username"`
	Status        string    `gorm:"type:varchar(50);index" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Mailout struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	BotIdentifier string     `gorm:"type:varchar(100);index;not null" json:"bot_identifier"`
	ChatID        string     `gorm:"type:varchar(64);not null" json:"chat_id"`
	ProductID     uint       `gorm:"index;not null" json:"product_id"`
	Status        string     `gorm:"type:varchar(20);index;default:pending" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	SentAt        *time.Time `json:"sent_at"`
}

func (Mailout) TableName() string {
	return "mailouts"
}

// Config is a per-tenant key/value setting addressed by path.
type Config struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BotIdentifier string `gorm:"type:varchar(100);uniqueIndex:idx_config_bot_path;not null" json:"bot_identifier"`
	Path          string `gorm:"type:varchar(255);uniqueIndex:idx_config_bot_path;not null" json:"path"`
	Name          string `gorm:"type:varchar(255)" json:"name"`
	Value         string `gorm:"type:text" json:"value"`
}

func (Config) TableName() string {
	return "configs"
}

// All lists every model for AutoMigrate and data copies, parents first.
func All() []interface{} {
	return []interface{}{
		&Bot{},
		&AdminUser{},
		&Button{},
		&Category{},
		&Product{},
		&Template{},
		&Post{},
		&User{},
		&Mailout{},
		&Config{},
	}
}
