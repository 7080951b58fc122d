// Package session хранит контекст вошедшего пользователя в Redis.
//
// Запись сессии версионируется. Поля хеша названы по старым ключам хранилища
// клиента: ewa_user, ewa_token, ewa_subscription_details. Записи первой версии
// (без поля версии, пользователь в camelCase) переводятся в текущую при чтении.
// Нераспознанная запись никогда не превращается в пустой объект: Decode
// возвращает ErrSessionInvalid, а вызывающий считает пользователя вышедшим.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// CurrentVersion версия записи, которую пишет Encode.
const CurrentVersion = 2

const legacyVersion = 1

// Поля хеша сессии.
const (
	FieldVersion             = "ewa_version"
	FieldUser                = "ewa_user"
	FieldToken               = "ewa_token"
	FieldSubscriptionDetails = "ewa_subscription_details"
)

var (
	// ErrSessionNotFound сессии нет или срок её жизни истёк.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInvalid запись сессии не соответствует ни одной известной версии.
	ErrSessionInvalid = errors.New("session invalid")
)

// UserInfo данные пользователя, видимые клиенту.
type UserInfo struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// SubscriptionDetails краткие сведения об активной подписке.
type SubscriptionDetails struct {
	SubscriptionID   string           `json:"subscription_id"`
	PlanID           string           `json:"plan_id"`
	Quantity         int              `json:"quantity"`
	Frequency        models.Frequency `json:"frequency"`
	NextDeliveryDate *time.Time       `json:"next_delivery_date,omitempty"`
}

// State контекст сессии. Нулевое значение означает, что пользователь не вошёл.
type State struct {
	Version             int                  `json:"version"`
	User                *UserInfo            `json:"user"`
	Token               string               `json:"token,omitempty"`
	SubscriptionDetails *SubscriptionDetails `json:"subscription_details,omitempty"`
}

// Empty возвращает состояние вышедшего пользователя.
func Empty() State {
	return State{}
}

// LoggedIn сообщает, есть ли в состоянии пользователь.
func (s State) LoggedIn() bool {
	return s.User != nil
}

// Encode сериализует состояние в поля хеша текущей версии.
func Encode(s State) (map[string]string, error) {
	const op = "session.Encode"
	if s.User == nil {
		return nil, fmt.Errorf("%s: user is required", op)
	}
	user, err := json.Marshal(s.User)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fields := map[string]string{
		FieldVersion: strconv.Itoa(CurrentVersion),
		FieldUser:    string(user),
		FieldToken:   s.Token,
	}
	if s.SubscriptionDetails != nil {
		details, err := json.Marshal(s.SubscriptionDetails)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fields[FieldSubscriptionDetails] = string(details)
	}
	return fields, nil
}

// Decode восстанавливает состояние из полей хеша. Пустой набор полей даёт
// ErrSessionNotFound, нераспознанный ErrSessionInvalid; в обоих случаях
// возвращается Empty().
func Decode(fields map[string]string) (State, error) {
	if len(fields) == 0 {
		return Empty(), ErrSessionNotFound
	}

	rawVersion, hasVersion := fields[FieldVersion]
	if !hasVersion {
		return decodeLegacy(fields)
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil {
		return Empty(), fmt.Errorf("%w: version %q", ErrSessionInvalid, rawVersion)
	}
	switch version {
	case CurrentVersion:
		return decodeCurrent(fields)
	case legacyVersion:
		return decodeLegacy(fields)
	default:
		return Empty(), fmt.Errorf("%w: unknown version %d", ErrSessionInvalid, version)
	}
}

func decodeCurrent(fields map[string]string) (State, error) {
	var user UserInfo
	if err := strictUnmarshal(fields[FieldUser], &user); err != nil {
		return Empty(), fmt.Errorf("%w: user: %v", ErrSessionInvalid, err)
	}
	if err := validateUser(user); err != nil {
		return Empty(), err
	}

	state := State{Version: CurrentVersion, User: &user, Token: fields[FieldToken]}
	if raw, ok := fields[FieldSubscriptionDetails]; ok && raw != "" {
		var details SubscriptionDetails
		if err := strictUnmarshal(raw, &details); err != nil {
			return Empty(), fmt.Errorf("%w: subscription details: %v", ErrSessionInvalid, err)
		}
		state.SubscriptionDetails = &details
	}
	return state, nil
}

// legacyUser и legacyDetails формат первой версии.
type legacyUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type legacyDetails struct {
	ID               string `json:"id"`
	PlanID           string `json:"planId"`
	Quantity         int    `json:"quantity"`
	Frequency        string `json:"frequency"`
	NextDeliveryDate string `json:"nextDeliveryDate"`
}

func decodeLegacy(fields map[string]string) (State, error) {
	var lu legacyUser
	if err := strictUnmarshal(fields[FieldUser], &lu); err != nil {
		return Empty(), fmt.Errorf("%w: legacy user: %v", ErrSessionInvalid, err)
	}
	role := models.Role(lu.Role)
	if lu.Role == "" {
		role = models.RoleCustomer
	}
	user := UserInfo{ID: lu.ID, Name: lu.Name, Email: lu.Email, Role: role}
	if err := validateUser(user); err != nil {
		return Empty(), err
	}

	state := State{Version: CurrentVersion, User: &user, Token: legacyToken(fields[FieldToken])}
	if raw, ok := fields[FieldSubscriptionDetails]; ok && raw != "" {
		var ld legacyDetails
		if err := strictUnmarshal(raw, &ld); err != nil {
			return Empty(), fmt.Errorf("%w: legacy subscription details: %v", ErrSessionInvalid, err)
		}
		details := SubscriptionDetails{
			SubscriptionID: ld.ID,
			PlanID:         ld.PlanID,
			Quantity:       ld.Quantity,
			Frequency:      models.Frequency(ld.Frequency),
		}
		if ld.NextDeliveryDate != "" {
			next, err := time.Parse("2006-01-02", ld.NextDeliveryDate)
			if err != nil {
				return Empty(), fmt.Errorf("%w: legacy next delivery date: %v", ErrSessionInvalid, err)
			}
			details.NextDeliveryDate = &next
		}
		state.SubscriptionDetails = &details
	}
	return state, nil
}

// legacyToken снимает JSON-кавычки, в которые старый клиент заворачивал токен.
func legacyToken(raw string) string {
	var token string
	if err := json.Unmarshal([]byte(raw), &token); err == nil {
		return token
	}
	return raw
}

func validateUser(u UserInfo) error {
	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: user id and email are required", ErrSessionInvalid)
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrSessionInvalid, u.Role)
	}
	return nil
}

// strictUnmarshal отвергает пустую строку, null и объекты, не являющиеся JSON-объектом.
func strictUnmarshal(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return errors.New("empty value")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return errors.New("not an object")
	}
	return json.Unmarshal([]byte(trimmed), v)
}
