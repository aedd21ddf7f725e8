package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL store.  WithinTx holds txMu
// for the whole transaction, which plays the role of the row locks, and
// restores a snapshot when fn fails.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seq          uint64
	hotels       map[uint64]model.Hotel
	roomTypes    map[uint64]model.RoomType
	rooms        map[uint64]model.Room
	bookings     map[uint64]model.Booking
	paymentTypes map[uint64]model.PaymentType
	payments     map[uint64]model.Payment
	customers    map[uint64]model.Customer
	users        map[uint64]model.User
	roles        map[uint64][]string
	approvals    map[uint64]model.AdminApprovalRequest
	tokens       map[string]model.RefreshToken

	// fail makes the named operation return the error, e.g. "Payments.Create".
	fail map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		hotels:       map[uint64]model.Hotel{},
		roomTypes:    map[uint64]model.RoomType{},
		rooms:        map[uint64]model.Room{},
		bookings:     map[uint64]model.Booking{},
		paymentTypes: map[uint64]model.PaymentType{},
		payments:     map[uint64]model.Payment{},
		customers:    map[uint64]model.Customer{},
		users:        map[uint64]model.User{},
		roles:        map[uint64][]string{},
		approvals:    map[uint64]model.AdminApprovalRequest{},
		tokens:       map[string]model.RefreshToken{},
		fail:         map[string]error{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	roles := make(map[uint64][]string, len(db.roles))
	for k, v := range db.roles {
		roles[k] = append([]string{}, v...)
	}
	return &memDB{
		seq:          db.seq,
		hotels:       cloneMap(db.hotels),
		roomTypes:    cloneMap(db.roomTypes),
		rooms:        cloneMap(db.rooms),
		bookings:     cloneMap(db.bookings),
		paymentTypes: cloneMap(db.paymentTypes),
		payments:     cloneMap(db.payments),
		customers:    cloneMap(db.customers),
		users:        cloneMap(db.users),
		roles:        roles,
		approvals:    cloneMap(db.approvals),
		tokens:       cloneMap(db.tokens),
	}
}

func (db *memDB) restore(s *memDB) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.seq = s.seq
	db.hotels, db.roomTypes, db.rooms = s.hotels, s.roomTypes, s.rooms
	db.bookings, db.paymentTypes, db.payments = s.bookings, s.paymentTypes, s.payments
	db.customers, db.users, db.roles = s.customers, s.users, s.roles
	db.approvals, db.tokens = s.approvals, s.tokens
}

// lock takes the data mutex and returns the injected failure for op, if any.
func (db *memDB) lock(op string) error {
	db.mu.Lock()
	return db.fail[op]
}

func (db *memDB) next() uint64 {
	db.seq++
	return db.seq
}

type memStore struct {
	db   *memDB
	inTx bool
}

func newMemStore() *memStore { return &memStore{db: newMemDB()} }

func (s *memStore) Hotels() repository.HotelRepository             { return memHotels{s.db} }
func (s *memStore) RoomTypes() repository.RoomTypeRepository       { return memRoomTypes{s.db} }
func (s *memStore) Rooms() repository.RoomRepository               { return memRooms{s.db} }
func (s *memStore) Bookings() repository.BookingRepository         { return memBookings{s.db} }
func (s *memStore) PaymentTypes() repository.PaymentTypeRepository { return memPaymentTypes{s.db} }
func (s *memStore) Payments() repository.PaymentRepository         { return memPayments{s.db} }
func (s *memStore) Customers() repository.CustomerRepository       { return memCustomers{s.db} }
func (s *memStore) Users() repository.UserRepository               { return memUsers{s.db} }
func (s *memStore) Approvals() repository.ApprovalRepository       { return memApprovals{s.db} }
func (s *memStore) Tokens() repository.TokenRepository             { return memTokens{s.db} }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()
	snap := s.db.snapshot()
	if err := fn(&memStore{db: s.db, inTx: true}); err != nil {
		s.db.restore(snap)
		return err
	}
	return nil
}

// ---- seed helpers ----

func (s *memStore) addHotel(name string) model.Hotel {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	h := model.Hotel{ID: s.db.next(), Name: name}
	s.db.hotels[h.ID] = h
	return h
}

func (s *memStore) addRoomType(name string, priceCents int64) model.RoomType {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rt := model.RoomType{ID: s.db.next(), Name: name, PricePerNightCents: priceCents, Capacity: 2}
	s.db.roomTypes[rt.ID] = rt
	return rt
}

func (s *memStore) addRoom(hotelID, typeID uint64, number string) model.Room {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r := model.Room{ID: s.db.next(), HotelID: hotelID, RoomTypeID: typeID, RoomNumber: number, Status: model.RoomAvailable}
	s.db.rooms[r.ID] = r
	return r
}

func (s *memStore) addUser(email string, roles ...string) model.User {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u := model.User{ID: s.db.next(), Email: email, Username: strings.Split(email, "@")[0], IsActive: true}
	s.db.users[u.ID] = u
	s.db.roles[u.ID] = roles
	return u
}

func (s *memStore) addCustomer(userID uint64, name string) model.Customer {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c := model.Customer{ID: s.db.next(), UserID: userID, Name: name, Email: name + "@example.com"}
	s.db.customers[c.ID] = c
	return c
}

func (s *memStore) addBooking(customerID, roomID uint64, in, out time.Time, status model.BookingStatus) model.Booking {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b := model.Booking{ID: s.db.next(), CustomerID: customerID, RoomID: roomID, BookingDate: time.Now().UTC(), CheckIn: in, CheckOut: out, Status: status}
	s.db.bookings[b.ID] = b
	return b
}

func (s *memStore) booking(id uint64) model.Booking {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.bookings[id]
}

func (s *memStore) allBookings() []model.Booking {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.db.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) allPayments() []model.Payment {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Payment{}
	for _, p := range s.db.payments {
		out = append(out, p)
	}
	return out
}

func (s *memStore) failOn(op string, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.fail[op] = err
}

// ---- repositories ----

type memHotels struct{ db *memDB }

func (r memHotels) List(ctx context.Context) ([]model.Hotel, error) {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Hotels.List"); err != nil {
		return nil, err
	}
	out := []model.Hotel{}
	for _, h := range r.db.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memHotels) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	h, ok := r.db.hotels[id]
	if !ok {
		return h, repository.ErrNotFound
	}
	return h, nil
}

func (r memHotels) Create(ctx context.Context, h *model.Hotel) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Hotels.Create"); err != nil {
		return err
	}
	h.ID = r.db.next()
	r.db.hotels[h.ID] = *h
	return nil
}

type memRoomTypes struct{ db *memDB }

func (r memRoomTypes) countRooms(typeID uint64) int {
	n := 0
	for _, rm := range r.db.rooms {
		if rm.RoomTypeID == typeID {
			n++
		}
	}
	return n
}

func (r memRoomTypes) ListWithCounts(ctx context.Context) ([]model.RoomType, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	out := []model.RoomType{}
	for _, t := range r.db.roomTypes {
		t.RoomCount = r.countRooms(t.ID)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memRoomTypes) Page(ctx context.Context, q repository.PageQuery) ([]model.RoomType, int64, int64, error) {
	all, _ := r.ListWithCounts(ctx)
	total := int64(len(all))
	out := []model.RoomType{}
	for _, t := range all {
		if q.Search == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(q.Search)) {
			out = append(out, t)
		}
	}
	return window(out, q), total, int64(len(out)), nil
}

func window[T any](items []T, q repository.PageQuery) []T {
	if q.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return items[q.Offset:end]
}

func (r memRoomTypes) GetByID(ctx context.Context, id uint64) (model.RoomType, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	t, ok := r.db.roomTypes[id]
	if !ok {
		return t, repository.ErrNotFound
	}
	return t, nil
}

func (r memRoomTypes) Create(ctx context.Context, rt *model.RoomType) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	rt.ID = r.db.next()
	r.db.roomTypes[rt.ID] = *rt
	return nil
}

func (r memRoomTypes) Update(ctx context.Context, rt model.RoomType) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if _, ok := r.db.roomTypes[rt.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.roomTypes[rt.ID] = rt
	return nil
}

func (r memRoomTypes) Delete(ctx context.Context, id uint64) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if _, ok := r.db.roomTypes[id]; !ok {
		return repository.ErrNotFound
	}
	if r.countRooms(id) > 0 {
		return repository.ErrConflict
	}
	delete(r.db.roomTypes, id)
	return nil
}

type memRooms struct{ db *memDB }

func (r memRooms) detail(rm model.Room) model.RoomDetail {
	rt := r.db.roomTypes[rm.RoomTypeID]
	return model.RoomDetail{
		Room:               rm,
		HotelName:          r.db.hotels[rm.HotelID].Name,
		RoomTypeName:       rt.Name,
		PricePerNightCents: rt.PricePerNightCents,
		Capacity:           rt.Capacity,
	}
}

func (r memRooms) sorted() []model.RoomDetail {
	out := []model.RoomDetail{}
	for _, rm := range r.db.rooms {
		out = append(out, r.detail(rm))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memRooms) GetByID(ctx context.Context, id uint64) (model.RoomDetail, error) {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Rooms.GetByID"); err != nil {
		return model.RoomDetail{}, err
	}
	rm, ok := r.db.rooms[id]
	if !ok {
		return model.RoomDetail{}, repository.ErrNotFound
	}
	return r.detail(rm), nil
}

func (r memRooms) Search(ctx context.Context, q repository.RoomSearchQuery) ([]model.RoomDetail, int64, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	match := []model.RoomDetail{}
	for _, d := range r.sorted() {
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if q.RoomTypeID != 0 && d.RoomTypeID != q.RoomTypeID {
			continue
		}
		if q.Query != "" && !strings.Contains(d.RoomNumber, q.Query) {
			continue
		}
		if q.ExcludeBooked && memBookings(r).overlap(d.ID, q.CheckIn, q.CheckOut, 0) {
			continue
		}
		match = append(match, d)
	}
	return window(match, repository.PageQuery{Offset: (q.Page - 1) * q.PageSize, Limit: q.PageSize}), int64(len(match)), nil
}

func (r memRooms) Featured(ctx context.Context, count int) ([]model.RoomDetail, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	all := r.sorted()
	sort.SliceStable(all, func(i, j int) bool { return all[i].PricePerNightCents > all[j].PricePerNightCents })
	return window(all, repository.PageQuery{Limit: count}), nil
}

func (r memRooms) Page(ctx context.Context, q repository.PageQuery) ([]model.RoomDetail, int64, int64, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	all := r.sorted()
	out := []model.RoomDetail{}
	for _, d := range all {
		if q.Search == "" || strings.Contains(d.RoomNumber, q.Search) {
			out = append(out, d)
		}
	}
	return window(out, q), int64(len(all)), int64(len(out)), nil
}

func (r memRooms) dupNumber(rm model.Room) bool {
	for _, o := range r.db.rooms {
		if o.ID != rm.ID && o.HotelID == rm.HotelID && o.RoomNumber == rm.RoomNumber {
			return true
		}
	}
	return false
}

func (r memRooms) Create(ctx context.Context, rm *model.Room) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if r.dupNumber(*rm) {
		return repository.ErrDuplicate
	}
	rm.ID = r.db.next()
	r.db.rooms[rm.ID] = *rm
	return nil
}

func (r memRooms) Update(ctx context.Context, rm model.Room) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if _, ok := r.db.rooms[rm.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.dupNumber(rm) {
		return repository.ErrDuplicate
	}
	r.db.rooms[rm.ID] = rm
	return nil
}

func (r memRooms) Delete(ctx context.Context, id uint64) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if _, ok := r.db.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range r.db.bookings {
		if b.RoomID == id {
			return repository.ErrConflict
		}
	}
	delete(r.db.rooms, id)
	return nil
}

func (r memRooms) LockForBooking(ctx context.Context, id uint64) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Rooms.LockForBooking"); err != nil {
		return err
	}
	if _, ok := r.db.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

type memBookings struct{ db *memDB }

func (r memBookings) overlap(roomID uint64, in, out time.Time, exclude uint64) bool {
	for _, b := range r.db.bookings {
		if b.RoomID == roomID && b.Status != model.BookingCancelled && b.ID != exclude &&
			b.CheckIn.Before(out) && b.CheckOut.After(in) {
			return true
		}
	}
	return false
}

func (r memBookings) detail(b model.Booking) model.BookingDetail {
	rm := r.db.rooms[b.RoomID]
	rt := r.db.roomTypes[rm.RoomTypeID]
	c := r.db.customers[b.CustomerID]
	return model.BookingDetail{
		Booking:            b,
		RoomNumber:         rm.RoomNumber,
		RoomTypeName:       rt.Name,
		PricePerNightCents: rt.PricePerNightCents,
		CustomerName:       c.Name,
		CustomerEmail:      c.Email,
		CustomerUserID:     c.UserID,
	}
}

func (r memBookings) HasOverlap(ctx context.Context, roomID uint64, in, out time.Time, excludeID uint64) (bool, error) {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Bookings.HasOverlap"); err != nil {
		return false, err
	}
	return r.overlap(roomID, in, out, excludeID), nil
}

func (r memBookings) Create(ctx context.Context, b *model.Booking) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Bookings.Create"); err != nil {
		return err
	}
	b.ID = r.db.next()
	r.db.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	b, ok := r.db.bookings[id]
	if !ok {
		return b, repository.ErrNotFound
	}
	return b, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) GetDetail(ctx context.Context, id uint64) (model.BookingDetail, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	b, ok := r.db.bookings[id]
	if !ok {
		return model.BookingDetail{}, repository.ErrNotFound
	}
	return r.detail(b), nil
}

func (r memBookings) list(keep func(model.Booking) bool) []model.BookingDetail {
	out := []model.BookingDetail{}
	for _, b := range r.db.bookings {
		if keep(b) {
			out = append(out, r.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memBookings) ListByCustomer(ctx context.Context, customerID uint64) ([]model.BookingDetail, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	return r.list(func(b model.Booking) bool { return b.CustomerID == customerID }), nil
}

func (r memBookings) ListPendingByCustomer(ctx context.Context, customerID uint64) ([]model.BookingDetail, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	out := r.list(func(b model.Booking) bool { return b.CustomerID == customerID && b.Status == model.BookingPending })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memBookings) LatestPendingForUser(ctx context.Context, userID uint64) (model.Booking, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	var best *model.Booking
	for _, b := range r.db.bookings {
		b := b
		if r.db.customers[b.CustomerID].UserID != userID || b.Status != model.BookingPending {
			continue
		}
		if best == nil || b.BookingDate.After(best.BookingDate) || (b.BookingDate.Equal(best.BookingDate) && b.ID > best.ID) {
			best = &b
		}
	}
	if best == nil {
		return model.Booking{}, repository.ErrNotFound
	}
	return *best, nil
}

func (r memBookings) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Bookings.UpdateStatus"); err != nil {
		return err
	}
	b, ok := r.db.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	r.db.bookings[id] = b
	return nil
}

func (r memBookings) Page(ctx context.Context, q repository.PageQuery) ([]model.BookingDetail, int64, int64, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	all := r.list(func(model.Booking) bool { return true })
	out := []model.BookingDetail{}
	for _, d := range all {
		if q.Search == "" || strings.Contains(strings.ToLower(d.CustomerName), strings.ToLower(q.Search)) {
			out = append(out, d)
		}
	}
	return window(out, q), int64(len(all)), int64(len(out)), nil
}

type memPaymentTypes struct{ db *memDB }

func (r memPaymentTypes) GetByName(ctx context.Context, name string) (model.PaymentType, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, pt := range r.db.paymentTypes {
		if pt.Name == name {
			return pt, nil
		}
	}
	return model.PaymentType{}, repository.ErrNotFound
}

func (r memPaymentTypes) Create(ctx context.Context, pt *model.PaymentType) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, o := range r.db.paymentTypes {
		if o.Name == pt.Name {
			return repository.ErrDuplicate
		}
	}
	pt.ID = r.db.next()
	r.db.paymentTypes[pt.ID] = *pt
	return nil
}

type memPayments struct{ db *memDB }

func (r memPayments) GetByBookingAndType(ctx context.Context, bookingID, typeID uint64) (model.Payment, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, p := range r.db.payments {
		if p.BookingID == bookingID && p.PaymentTypeID == typeID {
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrNotFound
}

func (r memPayments) Create(ctx context.Context, p *model.Payment) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Payments.Create"); err != nil {
		return err
	}
	for _, o := range r.db.payments {
		if o.BookingID == p.BookingID && o.PaymentTypeID == p.PaymentTypeID {
			return repository.ErrDuplicate
		}
	}
	p.ID = r.db.next()
	r.db.payments[p.ID] = *p
	return nil
}

func (r memPayments) Update(ctx context.Context, p model.Payment) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if _, ok := r.db.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.payments[p.ID] = p
	return nil
}

type memCustomers struct{ db *memDB }

func (r memCustomers) GetByUserID(ctx context.Context, userID uint64) (model.Customer, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, c := range r.db.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	return model.Customer{}, repository.ErrNotFound
}

func (r memCustomers) Create(ctx context.Context, c *model.Customer) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Customers.Create"); err != nil {
		return err
	}
	for _, o := range r.db.customers {
		if o.UserID == c.UserID {
			return repository.ErrDuplicate
		}
	}
	c.ID = r.db.next()
	r.db.customers[c.ID] = *c
	return nil
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(ctx context.Context, u *model.User) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, o := range r.db.users {
		if o.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = r.db.next()
	r.db.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, u := range r.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r memUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	u, ok := r.db.users[id]
	if !ok {
		return u, repository.ErrNotFound
	}
	return u, nil
}

func (r memUsers) Roles(ctx context.Context, userID uint64) ([]string, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	out := append([]string{}, r.db.roles[userID]...)
	sort.Strings(out)
	return out, nil
}

func (r memUsers) AddRole(ctx context.Context, userID uint64, role string) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Users.AddRole"); err != nil {
		return err
	}
	for _, have := range r.db.roles[userID] {
		if have == role {
			return nil
		}
	}
	r.db.roles[userID] = append(r.db.roles[userID], role)
	return nil
}

func (r memUsers) List(ctx context.Context) ([]model.UserSummary, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	out := []model.UserSummary{}
	for _, u := range r.db.users {
		pending := false
		for _, a := range r.db.approvals {
			if a.UserID == u.ID && a.Status == model.ApprovalPending {
				pending = true
			}
		}
		roles := append([]string{}, r.db.roles[u.ID]...)
		sort.Strings(roles)
		out = append(out, model.UserSummary{ID: u.ID, Email: u.Email, Roles: roles, Pending: pending})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memApprovals struct{ db *memDB }

func (r memApprovals) Create(ctx context.Context, req *model.AdminApprovalRequest) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	req.ID = r.db.next()
	r.db.approvals[req.ID] = *req
	return nil
}

func (r memApprovals) GetPendingByUser(ctx context.Context, userID uint64) (model.AdminApprovalRequest, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	for _, a := range r.db.approvals {
		if a.UserID == userID && a.Status == model.ApprovalPending {
			return a, nil
		}
	}
	return model.AdminApprovalRequest{}, repository.ErrNotFound
}

func (r memApprovals) Resolve(ctx context.Context, id uint64, status model.ApprovalStatus, approverID uint64, at time.Time) error {
	defer r.db.mu.Unlock()
	if err := r.db.lock("Approvals.Resolve"); err != nil {
		return err
	}
	a, ok := r.db.approvals[id]
	if !ok || a.Status != model.ApprovalPending {
		return repository.ErrNotFound
	}
	a.Status, a.ApprovedBy, a.ApprovedAt = status, &approverID, &at
	r.db.approvals[id] = a
	return nil
}

type memTokens struct{ db *memDB }

func (r memTokens) StoreRefresh(ctx context.Context, userID uint64, hash string, exp time.Time) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	r.db.tokens[hash] = model.RefreshToken{ID: r.db.next(), UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (r memTokens) ValidateRefresh(ctx context.Context, hash string) (uint64, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	t, ok := r.db.tokens[hash]
	if !ok || t.RevokedAt != nil || time.Now().After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.UserID, nil
}

func (r memTokens) RevokeByHash(ctx context.Context, hash string) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	if t, ok := r.db.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
		r.db.tokens[hash] = t
	}
	return nil
}

func (r memTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	defer r.db.mu.Unlock()
	r.db.lock("")
	now := time.Now()
	for h, t := range r.db.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.db.tokens[h] = t
		}
	}
	return nil
}

func (r memTokens) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	defer r.db.mu.Unlock()
	r.db.lock("")
	var n int64
	for h, t := range r.db.tokens {
		if t.ExpiresAt.Before(now) || t.RevokedAt != nil {
			delete(r.db.tokens, h)
			n++
		}
	}
	return n, nil
}
