package models

const (
	// DefaultConversationLimit – размер страницы списка диалогов по умолчанию
	DefaultConversationLimit = 20
	// DefaultMessageLimit – размер страницы сообщений по умолчанию
	DefaultMessageLimit = 50
	// MaxPageLimit ограничивает размер страницы сверху
	MaxPageLimit = 100
)

// Pagination описывает параметры страницы в ответе API
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NormalizePage приводит номер страницы и лимит к допустимым значениям.
// Страницы нумеруются с 1.
func NormalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Offset возвращает смещение для 1-индексированной страницы
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// NewPagination формирует блок пагинации
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
