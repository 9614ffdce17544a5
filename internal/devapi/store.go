package devapi

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/scholardesk/pkg/api"
)

// Store errors
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrUsernameTaken      = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

// account: пользователь вместе с хешем пароля и датой регистрации
type account struct {
	joined       time.Time
	passwordHash []byte
	api.User
}

func (a *account) adminView() api.AdminUser {
	return api.AdminUser{
		ID:           a.ID,
		UserID:       a.ID,
		Username:     a.Username,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		IsStaff:      a.IsStaff,
		IsSuperuser:  a.IsSuperuser,
		IsSuperAdmin: a.IsSuperAdmin,
	}
}

type refreshEntry struct {
	expires time.Time
	userID  int64
}

// Store хранит пользователей, стипендии и refresh токены в памяти
type Store struct {
	users        map[int64]*account
	scholarships map[int64]*api.Scholarship
	refresh      map[string]refreshEntry
	nextUser     int64
	nextScholar  int64
	bcryptCost   int
	mu           sync.RWMutex
}

// NewStore создает пустое хранилище. cost: стоимость bcrypt
func NewStore(cost int) *Store {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		users:        make(map[int64]*account),
		scholarships: make(map[int64]*api.Scholarship),
		refresh:      make(map[string]refreshEntry),
		bcryptCost:   cost,
	}
}

// NewUser describes an account to create
type NewUser struct {
	Joined             time.Time
	Account            api.Account
	UserType           string
	Phone              string
	Nationality        string
	CountryOfResidence string
	IsStaff            bool
	IsSuperAdmin       bool
}

// CreateUser регистрирует пользователя; email и username уникальны без учета регистра
func (s *Store) CreateUser(in NewUser) (api.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Account.Password), s.bcryptCost)
	if err != nil {
		return api.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.Account.Email) {
			return api.User{}, ErrEmailTaken
		}
		if strings.EqualFold(u.Username, in.Account.Username) {
			return api.User{}, ErrUsernameTaken
		}
	}

	s.nextUser++
	acc := &account{
		joined:       in.Joined,
		passwordHash: hash,
		User: api.User{
			ID:                 s.nextUser,
			Username:           in.Account.Username,
			Email:              in.Account.Email,
			FirstName:          in.Account.FirstName,
			LastName:           in.Account.LastName,
			UserType:           in.UserType,
			IsStaff:            in.IsStaff,
			IsSuperAdmin:       in.IsSuperAdmin,
			Phone:              in.Phone,
			Nationality:        in.Nationality,
			CountryOfResidence: in.CountryOfResidence,
		},
	}
	if in.IsSuperAdmin {
		acc.Profile = &api.UserProfile{IsSuperAdmin: true}
	}
	s.users[acc.ID] = acc
	return acc.User, nil
}

// Authenticate проверяет email и пароль
func (s *Store) Authenticate(email, password string) (api.User, error) {
	s.mu.RLock()
	var found *account
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found = u
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return api.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(found.passwordHash, []byte(password)); err != nil {
		return api.User{}, ErrInvalidCredentials
	}
	return found.User, nil
}

// User возвращает пользователя по id
func (s *Store) User(id int64) (api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return api.User{}, ErrNotFound
	}
	return u.User, nil
}

// Admins возвращает администраторов, отсортированных по id
func (s *Store) Admins() []api.AdminUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.AdminUser, 0)
	for _, u := range s.sortedUsers() {
		if u.IsAdmin() {
			out = append(out, u.adminView())
		}
	}
	return out
}

// UpdateAdmin применяет PATCH к администратору
func (s *Store) UpdateAdmin(id int64, req api.UpdateAdminRequest) (api.AdminUser, error) {
	var hash []byte
	if req.Password != nil {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost); err != nil {
			return api.AdminUser{}, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.IsAdmin() {
		return api.AdminUser{}, ErrNotFound
	}
	if req.Email != nil {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Email, *req.Email) {
				return api.AdminUser{}, ErrEmailTaken
			}
		}
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.IsSuperAdmin != nil {
		u.IsSuperAdmin = *req.IsSuperAdmin
		u.Profile = &api.UserProfile{IsSuperAdmin: *req.IsSuperAdmin}
	}
	if hash != nil {
		u.passwordHash = hash
	}
	return u.adminView(), nil
}

// DeleteUser удаляет пользователя и его refresh токены
func (s *Store) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for token, e := range s.refresh {
		if e.userID == id {
			delete(s.refresh, token)
		}
	}
	return nil
}

// userRecord: строка выгрузки пользователей
type userRecord struct {
	joined time.Time
	api.User
}

// Users возвращает пользователей; role "": все, иначе user_type
func (s *Store) Users(role string) []userRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]userRecord, 0, len(s.users))
	for _, u := range s.sortedUsers() {
		if role != "" && !strings.EqualFold(u.UserType, role) {
			continue
		}
		out = append(out, userRecord{joined: u.joined, User: u.User})
	}
	return out
}

// sortedUsers вызывается под блокировкой
func (s *Store) sortedUsers() []*account {
	out := make([]*account, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b *account) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Scholarships возвращает все стипендии, отсортированные по id
func (s *Store) Scholarships() []api.Scholarship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Scholarship, 0, len(s.scholarships))
	for _, sc := range s.scholarships {
		out = append(out, *sc)
	}
	slices.SortFunc(out, func(a, b api.Scholarship) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Scholarship возвращает стипендию по id
func (s *Store) Scholarship(id int64) (api.Scholarship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scholarships[id]
	if !ok {
		return api.Scholarship{}, ErrNotFound
	}
	return *sc, nil
}

// CreateScholarship сохраняет новую стипендию
func (s *Store) CreateScholarship(in api.ScholarshipInput, now time.Time) api.Scholarship {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextScholar++
	sc := &api.Scholarship{ID: s.nextScholar, CreatedAt: now}
	applyInput(sc, in, now)
	s.scholarships[sc.ID] = sc
	return *sc
}

// UpdateScholarship полностью заменяет поля стипендии
func (s *Store) UpdateScholarship(id int64, in api.ScholarshipInput, now time.Time) (api.Scholarship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scholarships[id]
	if !ok {
		return api.Scholarship{}, ErrNotFound
	}
	applyInput(sc, in, now)
	return *sc, nil
}

// DeleteScholarship удаляет стипендию
func (s *Store) DeleteScholarship(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scholarships[id]; !ok {
		return ErrNotFound
	}
	delete(s.scholarships, id)
	return nil
}

func applyInput(sc *api.Scholarship, in api.ScholarshipInput, now time.Time) {
	sc.Name = in.Name
	sc.HostCountry = in.HostCountry
	sc.DegreeLevel = in.DegreeLevel
	sc.Deadline = in.Deadline
	sc.Eligibility = in.Eligibility
	sc.Description = in.Description
	sc.Benefits = in.Benefits
	sc.Link = in.Link
	sc.Author = in.Author
	sc.UpdatedAt = now
}

// SaveRefresh запоминает выданный refresh токен
func (s *Store) SaveRefresh(token string, userID int64, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[token] = refreshEntry{userID: userID, expires: expires}
}

// LookupRefresh возвращает владельца действующего refresh токена
func (s *Store) LookupRefresh(token string, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.refresh[token]
	if !ok || !now.Before(e.expires) {
		return 0, ErrTokenInvalid
	}
	return e.userID, nil
}

// RevokeRefresh отзывает refresh токен (blacklist при logout и ротации)
func (s *Store) RevokeRefresh(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, token)
}
