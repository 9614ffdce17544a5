package api

// TokenPair представляет пару токенов, выдаваемую при логине
type TokenPair struct {
	Access  string `json:"access"`  // JWT access token
	Refresh string `json:"refresh"` // refresh token
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse представляет ответ на успешный логин
type LoginResponse struct {
	Message string    `json:"message,omitempty"`
	Tokens  TokenPair `json:"tokens"`
	User    User      `json:"user"`
}

// RefreshRequest представляет запрос на обновление access token
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse представляет ответ на обновление токена.
// Refresh заполняется только если сервер ротирует refresh token
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// LogoutRequest представляет запрос на выход (refresh token попадает в blacklist)
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// MessageResponse is the generic acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// User represents the current user profile with role flags
type User struct {
	ID                 int64        `json:"id"`
	Username           string       `json:"username"`
	Email              string       `json:"email"`
	FirstName          string       `json:"first_name"`
	LastName           string       `json:"last_name"`
	UserType           string       `json:"user_type"`
	IsStaff            bool         `json:"is_staff"`
	IsSuperuser        bool         `json:"is_superuser"`
	IsSuperAdmin       bool         `json:"is_super_admin"`
	Phone              string       `json:"phone,omitempty"`
	Nationality        string       `json:"nationality,omitempty"`
	CountryOfResidence string       `json:"country_of_residence,omitempty"`
	Profile            *UserProfile `json:"profile,omitempty"`
}

// UserProfile is the nested admin profile some responses carry
type UserProfile struct {
	IsSuperAdmin bool `json:"is_super_admin"`
}

// User types reported by the API
const (
	UserTypeAdmin   = "admin"
	UserTypeStudent = "student"
)

// IsAdmin reports whether the user may open admin screens
func (u User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin || u.IsStaff || u.IsSuperuser
}

// IsStudent reports whether the user registered as a student
func (u User) IsStudent() bool {
	return u.UserType == UserTypeStudent
}

// IsSuper reports super-admin rights (may create other super admins)
func (u User) IsSuper() bool {
	return u.IsSuperAdmin || u.IsSuperuser || (u.Profile != nil && u.Profile.IsSuperAdmin)
}

// FullName joins first and last name
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Account is the nested user part of student and admin registration
type Account struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// StudentRegisterRequest представляет запрос на регистрацию студента
type StudentRegisterRequest struct {
	User               Account `json:"user" validate:"required"`
	Phone              string  `json:"phone" validate:"required,intl_phone"`
	Nationality        string  `json:"nationality" validate:"required"`
	CountryOfResidence string  `json:"country_of_residence" validate:"required"`
}

// RegisterResponse представляет ответ на регистрацию
type RegisterResponse struct {
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой.
// API отдает либо error, либо detail (DRF)
type ErrorResponse struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}
