// Package models содержит доменные сущности eventhub: пользователей, события,
// регистрации и производные структуры, которыми обмениваются хранилище,
// бизнес-логика и HTTP-слой.
package models

import "time"

// DefaultUserName подставляется, когда провайдер идентификации не передал имя.
const DefaultUserName = "Anonymous"

// Identity данные вызывающего, полученные от внешнего провайдера идентификации.
type Identity struct {
	TokenIdentifier string // Непрозрачный идентификатор субъекта токена
	Name            string
	Email           string
	ImageURL        string
}

// Location город пользователя, выбранный при онбординге.
type Location struct {
	City    string `json:"city" validate:"required"`
	State   string `json:"state,omitempty"`
	Country string `json:"country" validate:"required"`
}

// User представляет пользователя, созданного при первом обращении.
type User struct {
	ID                     string    `json:"id"`
	TokenIdentifier        string    `json:"-"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	ImageURL               string    `json:"imageUrl,omitempty"`
	HasCompletedOnboarding bool      `json:"hasCompletedOnboarding"`
	Interests              []string  `json:"interests"`
	Location               *Location `json:"location,omitempty"`
	FreeEventsCreated      int       `json:"freeEventsCreated"`
	HasPro                 bool      `json:"hasPro"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// OnboardingRequest тело запроса завершения онбординга.
type OnboardingRequest struct {
	Location  Location `json:"location"`
	Interests []string `json:"interests" validate:"dive,required"`
}

// UpgradeRequest тело запроса смены тарифа.
type UpgradeRequest struct {
	HasPro bool `json:"hasPro"`
}
