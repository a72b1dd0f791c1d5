package devserver

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	details      models.UserDetails
	passwordHash []byte
	verified     bool
}

// Payment is a checkout session awaiting payment.
type Payment struct {
	Ref        string
	UserID     string
	Narration  string
	Total      float64
	SuccessURL string
	FailureURL string
	Paid       bool
}

// SignUp is the account creation payload.
type SignUp struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Zone      string `json:"zone"`
}

// Store is the backend's in-memory state. All methods are safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	users     map[string]*user
	byEmail   map[string]string
	signupOTP map[string]string
	resetOTP  map[string]string

	products []models.Product
	carts    map[string][]models.CartItem
	payments map[string]*Payment

	program  *models.Program
	comments map[string][]models.Comment
	viewers  map[string]map[string]struct{}

	events []models.Event

	cost int
	now  func() time.Time
	otp  func() string
}

func NewStore(bcryptCost int) *Store {
	return &Store{
		users:     map[string]*user{},
		byEmail:   map[string]string{},
		signupOTP: map[string]string{},
		resetOTP:  map[string]string{},
		carts:     map[string][]models.CartItem{},
		payments:  map[string]*Payment{},
		comments:  map[string][]models.Comment{},
		viewers:   map[string]map[string]struct{}{},
		cost:      bcryptCost,
		now:       time.Now,
		otp:       randomOTP,
	}
}

func randomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ---- accounts ----

// CreateUser registers an unverified account and returns the signup OTP.
// Signing up again for an unverified email replaces the pending account.
func (s *Store) CreateUser(req SignUp) (string, error) {
	email := normEmail(req.Email)
	if email == "" || req.Password == "" || req.FirstName == "" {
		return "", badRequest("First name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[email]; ok {
		if s.users[id].verified {
			return "", ErrAlreadyExists
		}
		delete(s.users, id)
	}

	id := uuid.NewString()
	s.users[id] = &user{
		details: models.UserDetails{
			ID:        id,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     email,
			Zone:      strings.TrimSpace(req.Zone),
		},
		passwordHash: hash,
	}
	s.byEmail[email] = id

	otp := s.otp()
	s.signupOTP[email] = otp
	return otp, nil
}

// VerifySignup marks the account verified and returns its id.
func (s *Store) VerifySignup(email, otp string) (string, error) {
	email = normEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	want, ok := s.signupOTP[email]
	if !ok || want != strings.TrimSpace(otp) {
		return "", ErrInvalidOTP
	}
	delete(s.signupOTP, email)

	id := s.byEmail[email]
	s.users[id].verified = true
	return id, nil
}

// Authenticate checks credentials and returns the user id.
func (s *Store) Authenticate(email, password string) (string, error) {
	s.mu.Lock()
	var u user
	p := s.lookupEmail(normEmail(email))
	if p != nil {
		u = *p
	}
	s.mu.Unlock()

	if p == nil {
		return "", ErrInvalidLoginPassword
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidLoginPassword
	}
	if !u.verified {
		return "", ErrNotVerified
	}
	return u.details.ID, nil
}

// lookupEmail must be called with mu held.
func (s *Store) lookupEmail(email string) *user {
	id, ok := s.byEmail[email]
	if !ok {
		return nil
	}
	return s.users[id]
}

func (s *Store) User(id string) (models.UserDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.verified {
		return models.UserDetails{}, ErrNotFound
	}
	return u.details, nil
}

func (s *Store) ChangePassword(id, oldPassword, newPassword string) error {
	if newPassword == "" {
		return badRequest("New password is required")
	}

	s.mu.Lock()
	var hash []byte
	u, ok := s.users[id]
	if ok {
		hash = u.passwordHash
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(oldPassword)); err != nil {
		return badRequest("Old password is incorrect")
	}
	return s.setPassword(u, newPassword)
}

// StartReset issues a password reset OTP. Unknown emails get "" and no
// error so the endpoint does not reveal which accounts exist.
func (s *Store) StartReset(email string) string {
	email = normEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookupEmail(email) == nil {
		return ""
	}
	otp := s.otp()
	s.resetOTP[email] = otp
	return otp
}

func (s *Store) ResetPassword(email, otp, password string) error {
	email = normEmail(email)
	if password == "" {
		return badRequest("Password is required")
	}

	s.mu.Lock()
	want, ok := s.resetOTP[email]
	if !ok || want != strings.TrimSpace(otp) {
		s.mu.Unlock()
		return ErrInvalidOTP
	}
	delete(s.resetOTP, email)
	u := s.lookupEmail(email)
	s.mu.Unlock()

	return s.setPassword(u, password)
}

func (s *Store) setPassword(u *user, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	u.passwordHash = hash
	s.mu.Unlock()
	return nil
}

// ---- store & cart ----

func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product{}, s.products...)
}

func (s *Store) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

// product must be called with mu held.
func (s *Store) product(id string) (models.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *Store) Cart(userID string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem{}, s.carts[userID]...)
}

// Increase adds one unit of productID to the user's cart.
func (s *Store) Increase(userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.product(productID)
	if !ok {
		return ErrProductNotFound
	}

	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity++
			return nil
		}
	}
	s.carts[userID] = append(items, models.CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  1,
		Product:   p,
	})
	return nil
}

// Decrease is the payload of the decrease endpoint.
type Decrease struct {
	UserID     string `json:"userId"`
	ProductID  string `json:"productId"`
	CartItemID string `json:"cartItemId"`
	Quantity   int    `json:"quantity"`
	Remove     bool   `json:"remove"`
}

// Decrease sets a line's quantity. Remove, or a quantity of zero or less,
// deletes the line.
func (s *Store) Decrease(req Decrease) error {
	if req.ProductID == "" && req.CartItemID == "" {
		return badRequest("productId or cartItemId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[req.UserID]
	for i, it := range items {
		if it.ID != req.CartItemID && (req.ProductID == "" || it.ProductID != req.ProductID) {
			continue
		}
		if req.Remove || req.Quantity <= 0 {
			s.carts[req.UserID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
		items[i].Quantity = req.Quantity
		return nil
	}
	return ErrCartItemNotFound
}

// Checkout is the payload of the checkout endpoint.
type Checkout struct {
	Narration  string  `json:"narration"`
	TotalPrice float64 `json:"totalPrice"`
	UserID     string  `json:"userId"`
	SuccessURL string  `json:"successUrl"`
	FailureURL string  `json:"failureUrl"`
}

// StartCheckout validates the submitted total against the cart and opens a
// payment session.
func (s *Store) StartCheckout(req Checkout) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[req.UserID]
	if len(items) == 0 {
		return "", badRequest("Cart is empty")
	}

	var total float64
	for _, it := range items {
		total += it.Product.Price * float64(it.Quantity)
	}
	if math.Abs(total-req.TotalPrice) > 0.005 {
		return "", badRequest(fmt.Sprintf("Cart total mismatch: expected %.2f", total))
	}

	ref := uuid.NewString()
	s.payments[ref] = &Payment{
		Ref:        ref,
		UserID:     req.UserID,
		Narration:  req.Narration,
		Total:      total,
		SuccessURL: req.SuccessURL,
		FailureURL: req.FailureURL,
	}
	return ref, nil
}

// Pay completes a payment session and empties the payer's cart.
func (s *Store) Pay(ref string) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[ref]
	if !ok {
		return Payment{}, ErrNotFound
	}
	if !p.Paid {
		p.Paid = true
		delete(s.carts, p.UserID)
	}
	return *p, nil
}

// ---- live tv ----

// Program returns a copy of the current program, or nil.
func (s *Store) Program() *models.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return nil
	}
	p := *s.program
	if p.ViewerCount != nil {
		n := *p.ViewerCount
		p.ViewerCount = &n
	}
	return &p
}

// SetProgram replaces the current program; nil takes the channel off air.
func (s *Store) SetProgram(p *models.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.program = nil
		return
	}
	cp := *p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	n := len(s.viewers[cp.ID])
	cp.ViewerCount = &n
	s.program = &cp
}

// Comments returns the program's comments oldest first.
func (s *Store) Comments(programID string) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Comment{}, s.comments[programID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) AddComment(programID, userID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, badRequest("Comment cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil || s.program.ID != programID {
		return models.Comment{}, ErrNoProgram
	}
	u, ok := s.users[userID]
	if !ok {
		return models.Comment{}, ErrNotFound
	}

	c := models.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		UserID:    userID,
		ProgramID: programID,
		CreatedAt: s.now().UTC(),
		User:      models.CommentAuthor{FirstName: u.details.FirstName, LastName: u.details.LastName},
	}
	s.comments[programID] = append(s.comments[programID], c)
	return c, nil
}

// Participate records userID as a viewer of programID once.
func (s *Store) Participate(programID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil || s.program.ID != programID {
		return ErrNoProgram
	}
	v, ok := s.viewers[programID]
	if !ok {
		v = map[string]struct{}{}
		s.viewers[programID] = v
	}
	v[userID] = struct{}{}
	n := len(v)
	s.program.ViewerCount = &n
	return nil
}

// ---- events ----

func (s *Store) AddEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.events = append(s.events, e)
}

// Events lists events by start time, filtered by active when non-nil.
// limit <= 0 means no limit.
func (s *Store) Events(active *bool, limit, offset int) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		if active != nil && e.Active != *active {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []models.Event{}
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
