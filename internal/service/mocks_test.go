package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
)

type fakeAccountRepo struct {
	accounts     map[string]*models.Account
	existsResult bool
	countByRole  int
	created      []*models.Account
	createErr    error
	activateOK   bool
	findErr      error
	listFilter   models.AccountFilter
	passwordHash string
}

func newFakeAccountRepo(accounts ...*models.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: map[string]*models.Account{}}
	for _, account := range accounts {
		repo.accounts[account.ID] = account
	}
	return repo
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return account, nil
}

func (f *fakeAccountRepo) FindByUserIDAndRole(ctx context.Context, userID string, role models.Role) (*models.Account, error) {
	for _, account := range f.accounts {
		if account.UserID == userID && account.Role == role {
			return account, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccountRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	return f.existsResult, nil
}

func (f *fakeAccountRepo) CountByRole(ctx context.Context, role models.Role) (int, error) {
	return f.countByRole, nil
}

func (f *fakeAccountRepo) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, error) {
	f.listFilter = filter
	result := []models.Account{}
	for _, account := range f.accounts {
		result = append(result, *account)
	}
	return result, nil
}

func (f *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	if account.ID == "" {
		account.ID = "new-id"
	}
	f.created = append(f.created, account)
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccountRepo) ActivateTeacher(ctx context.Context, id string, ts time.Time) (bool, error) {
	return f.activateOK, nil
}

func (f *fakeAccountRepo) DeactivateTeacher(ctx context.Context, id string, ts time.Time) (bool, error) {
	return f.activateOK, nil
}

func (f *fakeAccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string, ts time.Time) error {
	f.passwordHash = passwordHash
	if account, ok := f.accounts[id]; ok {
		account.PasswordHash = passwordHash
		account.PasswordChangeRequired = false
	}
	return nil
}

// fakeStaffStore keeps staff attendance rows in memory and hands out
// transactions over them.
type fakeStaffStore struct {
	rows         map[string]*models.StaffAttendance
	names        map[string]string
	raceOnInsert bool
	failSet      error
	commits      int
	rollbacks    int
	upserted     *models.StaffAttendance
	listFilter   models.StaffAttendanceFilter
	listResult   []models.StaffAttendanceRecord
	counts       map[models.StaffStatus]int
	active       []string
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{rows: map[string]*models.StaffAttendance{}, names: map[string]string{}}
}

func staffKey(accountID string, date time.Time) string {
	return accountID + "|" + date.Format("2006-01-02")
}

func (f *fakeStaffStore) Begin(ctx context.Context) (repository.StaffDayTx, error) {
	return &fakeStaffTx{store: f}, nil
}

func (f *fakeStaffStore) FindRecord(ctx context.Context, accountID string, date time.Time) (*models.StaffAttendanceRecord, error) {
	row, ok := f.rows[staffKey(accountID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.StaffAttendanceRecord{StaffAttendance: *row, Name: f.names[accountID]}, nil
}

func (f *fakeStaffStore) List(ctx context.Context, filter models.StaffAttendanceFilter) ([]models.StaffAttendanceRecord, error) {
	f.listFilter = filter
	return f.listResult, nil
}

func (f *fakeStaffStore) CountByStatus(ctx context.Context, filter models.StaffAttendanceFilter) (map[models.StaffStatus]int, error) {
	f.listFilter = filter
	return f.counts, nil
}

func (f *fakeStaffStore) UpsertStatus(ctx context.Context, record *models.StaffAttendance) error {
	copied := *record
	f.upserted = &copied
	key := staffKey(record.AccountID, record.Date)
	if existing, ok := f.rows[key]; ok {
		existing.Status = record.Status
		existing.Remarks = record.Remarks
		return nil
	}
	f.rows[key] = &copied
	return nil
}

func (f *fakeStaffStore) MarkAbsent(ctx context.Context, date time.Time, remarks string) (int, error) {
	marked := 0
	for _, id := range f.active {
		key := staffKey(id, date)
		if _, ok := f.rows[key]; ok {
			continue
		}
		f.rows[key] = &models.StaffAttendance{ID: "absent-" + id, AccountID: id, Date: date, Status: models.StaffStatusAbsent, Remarks: remarks}
		marked++
	}
	return marked, nil
}

type fakeStaffTx struct {
	store *fakeStaffStore
	done  bool
}

func (t *fakeStaffTx) FindForUpdate(ctx context.Context, accountID string, date time.Time) (*models.StaffAttendance, error) {
	row, ok := t.store.rows[staffKey(accountID, date)]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (t *fakeStaffTx) Insert(ctx context.Context, record *models.StaffAttendance) (bool, error) {
	key := staffKey(record.AccountID, record.Date)
	if t.store.raceOnInsert {
		clock := "07:00"
		t.store.rows[key] = &models.StaffAttendance{ID: "raced", AccountID: record.AccountID, Date: record.Date, CheckIn: &clock, Status: models.StaffStatusPresent}
		return false, nil
	}
	if _, ok := t.store.rows[key]; ok {
		return false, nil
	}
	copied := *record
	copied.ID = "att-" + record.AccountID
	t.store.rows[key] = &copied
	return true, nil
}

func (t *fakeStaffTx) find(id string) *models.StaffAttendance {
	for _, row := range t.store.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (t *fakeStaffTx) SetCheckIn(ctx context.Context, id, checkIn string, status models.StaffStatus, remarks string) error {
	if t.store.failSet != nil {
		return t.store.failSet
	}
	row := t.find(id)
	row.CheckIn = &checkIn
	row.Status = status
	row.Remarks = remarks
	return nil
}

func (t *fakeStaffTx) SetCheckOut(ctx context.Context, id, checkOut string, status models.StaffStatus) error {
	if t.store.failSet != nil {
		return t.store.failSet
	}
	row := t.find(id)
	row.CheckOut = &checkOut
	row.Status = status
	return nil
}

func (t *fakeStaffTx) Commit() error {
	t.done = true
	t.store.commits++
	return nil
}

func (t *fakeStaffTx) Rollback() error {
	if !t.done {
		t.store.rollbacks++
	}
	t.done = true
	return nil
}

type fakeStudentRepo struct {
	students map[string]*models.Student
	exists   bool
	created  []*models.Student
	filter   models.RosterFilter
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func (f *fakeStudentRepo) ListByGradeSection(ctx context.Context, filter models.RosterFilter) ([]models.Student, error) {
	f.filter = filter
	result := []models.Student{}
	for _, student := range f.students {
		if student.Grade == filter.Grade && student.Section == filter.Section {
			result = append(result, *student)
		}
	}
	return result, nil
}

func (f *fakeStudentRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	return f.exists, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = "stu-new"
	f.created = append(f.created, student)
	return nil
}

// fakeRollRepo stores one row per (student, date), as the unique constraint
// on student_attendance does.
type fakeRollRepo struct {
	upserts []*models.StudentAttendance
	stored  map[string]*models.StudentAttendance
	failFor map[string]error
	rows    []models.StudentRollRow
}

func rollKey(studentID string, date time.Time) string {
	return studentID + "|" + date.Format("2006-01-02")
}

func (f *fakeRollRepo) Upsert(ctx context.Context, record *models.StudentAttendance) (*models.StudentAttendance, error) {
	if err := f.failFor[record.StudentID]; err != nil {
		return nil, err
	}
	f.upserts = append(f.upserts, record)
	if f.stored == nil {
		f.stored = map[string]*models.StudentAttendance{}
	}
	key := rollKey(record.StudentID, record.Date)
	if existing, ok := f.stored[key]; ok {
		existing.Present = record.Present
		existing.RecordedBy = record.RecordedBy
		return existing, nil
	}
	copied := *record
	f.stored[key] = &copied
	return &copied, nil
}

func (f *fakeRollRepo) ListRoll(ctx context.Context, filter models.RosterFilter, date time.Time) ([]models.StudentRollRow, error) {
	return f.rows, nil
}

type fakeMetrics struct {
	transitions []models.StaffStatus
	recorded    int
	skipped     int
	scans       []string
}

func (f *fakeMetrics) RecordTransition(action models.AttendanceAction, status models.StaffStatus) {
	f.transitions = append(f.transitions, status)
}

func (f *fakeMetrics) RecordStudentRoll(recorded, skipped int) {
	f.recorded += recorded
	f.skipped += skipped
}

func (f *fakeMetrics) RecordScan(outcome string) {
	f.scans = append(f.scans, outcome)
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func teacherClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleTeacher}
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}
