package models

import "time"

// TicketType тип билета события.
type TicketType string

// LocationType формат проведения события.
type LocationType string

const (
	TicketFree TicketType = "free"
	TicketPaid TicketType = "paid"

	LocationPhysical LocationType = "physical"
	LocationOnline   LocationType = "online"
)

const (
	// FreeEventLimit количество событий, доступное без Pro.
	FreeEventLimit = 5
	// DefaultThemeColor единственный цвет темы, доступный без Pro.
	DefaultThemeColor = "#1e3a8a"
)

// Valid сообщает, входит ли тип билета в допустимый набор.
func (t TicketType) Valid() bool {
	return t == TicketFree || t == TicketPaid
}

// Valid сообщает, входит ли формат проведения в допустимый набор.
func (l LocationType) Valid() bool {
	return l == LocationPhysical || l == LocationOnline
}

// Event описание события с денормализованным счётчиком регистраций.
// Инвариант: 0 <= RegistrationCount <= Capacity.
type Event struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Slug              string       `json:"slug"`
	OrganizerID       string       `json:"organizerId"`
	OrganizerName     string       `json:"organizerName"`
	Category          string       `json:"category"`
	Tags              []string     `json:"tags"`
	StartDate         time.Time    `json:"startDate"`
	EndDate           time.Time    `json:"endDate"`
	Timezone          string       `json:"timezone"`
	LocationType      LocationType `json:"locationType"`
	Venue             string       `json:"venue,omitempty"`
	Address           string       `json:"address,omitempty"`
	City              string       `json:"city"`
	State             string       `json:"state,omitempty"`
	Country           string       `json:"country"`
	Capacity          int          `json:"capacity"`
	TicketType        TicketType   `json:"ticketType"`
	TicketPrice       *float64     `json:"ticketPrice,omitempty"`
	CoverImage        string       `json:"coverImage,omitempty"`
	ThemeColor        string       `json:"themeColor"`
	RegistrationCount int          `json:"registrationCount"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// Full сообщает, что свободных мест не осталось.
func (e *Event) Full() bool {
	return e.RegistrationCount >= e.Capacity
}

// CreateEventRequest тело запроса создания события.
type CreateEventRequest struct {
	Title        string       `json:"title" validate:"required,max=200"`
	Description  string       `json:"description"`
	Category     string       `json:"category" validate:"required"`
	Tags         []string     `json:"tags"`
	StartDate    time.Time    `json:"startDate" validate:"required"`
	EndDate      time.Time    `json:"endDate" validate:"required,gtefield=StartDate"`
	Timezone     string       `json:"timezone" validate:"required"`
	LocationType LocationType `json:"locationType" validate:"required,oneof=physical online"`
	Venue        string       `json:"venue"`
	Address      string       `json:"address"`
	City         string       `json:"city" validate:"required"`
	State        string       `json:"state"`
	Country      string       `json:"country" validate:"required"`
	Capacity     int          `json:"capacity" validate:"required,min=1"`
	TicketType   TicketType   `json:"ticketType" validate:"required,oneof=free paid"`
	TicketPrice  *float64     `json:"ticketPrice"`
	CoverImage   string       `json:"coverImage"`
	ThemeColor   string       `json:"themeColor" validate:"omitempty,hexcolor"`
}
