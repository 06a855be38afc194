package models

import (
	"time"

	"github.com/google/uuid"
)

// Property представляет объект недвижимости. Управляется сервисом объявлений,
// здесь используется только для чтения.
type Property struct {
	ID          uuid.UUID `json:"id"`
	OwnerUserID uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	City        string    `json:"city,omitempty"`
	Price       int64     `json:"price,omitempty"`
	MainImage   string    `json:"main_image,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PropertySummary – краткая информация об объекте для карточки диалога
type PropertySummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	City      string    `json:"city,omitempty"`
	Price     int64     `json:"price,omitempty"`
	MainImage string    `json:"main_image,omitempty"`
}

// Summary возвращает краткое представление объекта
func (p *Property) Summary() *PropertySummary {
	return &PropertySummary{
		ID:        p.ID,
		Title:     p.Title,
		City:      p.City,
		Price:     p.Price,
		MainImage: p.MainImage,
	}
}
