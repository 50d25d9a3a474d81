// internal/stock/bulkedit/store.go
package bulkedit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	apperrors "stock-backoffice/internal/common/errors"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/observer"
	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock/access"
	"stock-backoffice/internal/stock/filters"
)

// Field codes of the edit form.
const (
	FieldStatus          = "status"
	FieldResponsibleUser = "responsible_user"
	FieldKeysCount       = "keys_count"
	FieldOwnersCount     = "owners_count"
	FieldRestrictions    = "restrictions"
	FieldMileage         = "mileage"
	FieldEngineHours     = "engine_hours"
	FieldRealizationCost = "realization_cost"

	unnamedUser = "Без имени"
)

var (
	ErrNoSelection = errors.New("NO_SELECTION")
	ErrNoChanges   = errors.New("NO_CHANGES")
)

// Editor reads the editable fields and saves mass changes.
type Editor interface {
	EditableFields(ctx context.Context, group string) ([]models.EditableField, error)
	Save(ctx context.Context, items []models.MassEditItem) (*models.MassEditResult, error)
}

// ReferenceSource serves the option lists of the edit form.
type ReferenceSource interface {
	StatusTransitions(ctx context.Context, group, currentStatus string) ([]models.StatusTransition, error)
	Users(ctx context.Context) ([]models.User, error)
	KeysCount(ctx context.Context) ([]models.ReferenceItem, error)
}

// Guard checks that the signed-in user may perform an action.
type Guard interface {
	Require(ctx context.Context, permission string) error
}

// Notifier receives the report of a saved mass change.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// Form holds the new values. Nil means "not set".
type Form struct {
	Status          *string `json:"status"`
	ResponsibleUser *string `json:"responsible_user"`
	KeysCount       *string `json:"keys_count"`
	OwnersCount     *int    `json:"owners_count"`
	Restrictions    *bool   `json:"restrictions"`
	Mileage         *int    `json:"mileage"`
	EngineHours     *int    `json:"engine_hours"`
	RealizationCost *int    `json:"realization_cost"`
}

// Value renders the form value of code as sent to the backend.
func (f Form) Value(code string) (string, bool) {
	str := func(p *string) (string, bool) {
		if p == nil {
			return "", false
		}
		return *p, true
	}
	num := func(p *int) (string, bool) {
		if p == nil {
			return "", false
		}
		return strconv.Itoa(*p), true
	}

	switch code {
	case FieldStatus:
		return str(f.Status)
	case FieldResponsibleUser:
		return str(f.ResponsibleUser)
	case FieldKeysCount:
		return str(f.KeysCount)
	case FieldOwnersCount:
		return num(f.OwnersCount)
	case FieldRestrictions:
		if f.Restrictions == nil {
			return "", false
		}
		return strconv.FormatBool(*f.Restrictions), true
	case FieldMileage:
		return num(f.Mileage)
	case FieldEngineHours:
		return num(f.EngineHours)
	case FieldRealizationCost:
		return num(f.RealizationCost)
	}
	return "", false
}

// UserOption is a responsible user choice.
type UserOption struct {
	UID      string  `json:"uid"`
	Name     string  `json:"name"`
	City     *string `json:"city"`
	Timezone *string `json:"timezone"`
}

// FieldState is an editable field as offered for the current selection.
type FieldState struct {
	models.EditableField
	Disabled bool `json:"disabled"`
}

type Snapshot struct {
	Loading            bool
	StatusLoading      bool
	UsersLoading       bool
	KeysCountLoading   bool
	Fields             []FieldState
	StatusOptions      []models.StatusTransition
	UserOptions        []UserOption
	KeysCountOptions   []models.Option
	RestrictionOptions []models.Option
	SelectedCount      int
	SelectedCodes      []string
	MultiSelectWarning bool
	Form               Form
	LastResult         *models.MassEditResult
}

// RestrictionOptions are the yes/no choices of the restrictions field.
func RestrictionOptions() []models.Option {
	return []models.Option{{Text: "Да", Value: "true"}, {Text: "Нет", Value: "false"}}
}

// Store is the mass edit form: which fields are editable for the selected
// items, the option lists, the new values and the last save report.
type Store struct {
	editor   Editor
	source   ReferenceSource
	notifier Notifier
	access   Guard
	errors   *apperrors.Handler
	logger   logger.Logger
	subject  *observer.Subject[Snapshot]

	mu               sync.Mutex
	loading          bool
	statusLoading    bool
	usersLoading     bool
	keysCountLoading bool
	fields           []models.EditableField
	statusOptions    []models.StatusTransition
	userOptions      []UserOption
	keysCountOptions []models.Option
	selectedCount    int
	selectedCodes    []string
	warning          bool
	form             Form
	lastResult       *models.MassEditResult
}

type Dependencies struct {
	Editor   Editor
	Source   ReferenceSource
	Notifier Notifier
	Access   Guard
	Errors   *apperrors.Handler
	Logger   logger.Logger
}

func NewStore(deps Dependencies) *Store {
	log := logger.ForComponent(deps.Logger, "bulkedit")
	errs := deps.Errors
	if errs == nil {
		errs = apperrors.NewHandler(log, deps.Notifier)
	}
	return &Store{
		editor:           deps.Editor,
		source:           deps.Source,
		notifier:         deps.Notifier,
		access:           deps.Access,
		errors:           errs,
		logger:           log,
		subject:          observer.NewSubject[Snapshot](),
		fields:           []models.EditableField{},
		statusOptions:    []models.StatusTransition{},
		userOptions:      []UserOption{},
		keysCountOptions: []models.Option{},
		selectedCodes:    []string{},
	}
}

func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.subject.Subscribe(fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make([]FieldState, 0, len(s.fields))
	for _, f := range s.fields {
		fields = append(fields, FieldState{EditableField: f, Disabled: s.selectedCount > 1 && !f.MassChange})
	}
	return Snapshot{
		Loading:            s.loading,
		StatusLoading:      s.statusLoading,
		UsersLoading:       s.usersLoading,
		KeysCountLoading:   s.keysCountLoading,
		Fields:             fields,
		StatusOptions:      append([]models.StatusTransition(nil), s.statusOptions...),
		UserOptions:        append([]UserOption(nil), s.userOptions...),
		KeysCountOptions:   append([]models.Option(nil), s.keysCountOptions...),
		RestrictionOptions: RestrictionOptions(),
		SelectedCount:      s.selectedCount,
		SelectedCodes:      append([]string(nil), s.selectedCodes...),
		MultiSelectWarning: s.warning,
		Form:               s.form,
		LastResult:         s.lastResult,
	}
}

func (s *Store) publish() {
	s.subject.Notify(s.Snapshot())
}

// LoadFields loads the fields editable in group. A failure leaves no
// fields.
func (s *Store) LoadFields(ctx context.Context, group filters.StatusGroup) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.publish()

	fields, err := s.editor.EditableFields(ctx, group.Key())
	if err != nil {
		s.errors.Handle(ctx, "load-editable-fields", err, false)
		fields = []models.EditableField{}
	}

	s.mu.Lock()
	s.fields = fields
	s.loading = false
	s.mu.Unlock()
	s.publish()
}

// massAllowedLocked reports whether code may stay selected for the
// current item count. Callers hold mu.
func (s *Store) massAllowedLocked(code string) bool {
	for _, f := range s.fields {
		if f.Code == code {
			return f.MassChange
		}
	}
	return false
}

// IsFieldAvailable reports whether code can be edited for the selection.
// Unknown fields are available.
func (s *Store) IsFieldAvailable(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedCount <= 1 {
		return true
	}
	for _, f := range s.fields {
		if f.Code == code {
			return f.MassChange
		}
	}
	return true
}

// SetSelectedItemsCount records how many items are selected. With more
// than one, fields that cannot be mass edited are dropped from the
// selection and the warning is raised.
func (s *Store) SetSelectedItemsCount(count int) {
	s.mu.Lock()
	s.selectedCount = count
	s.warning = false
	if count > 1 {
		kept := make([]string, 0, len(s.selectedCodes))
		for _, code := range s.selectedCodes {
			if s.massAllowedLocked(code) {
				kept = append(kept, code)
			}
		}
		s.warning = len(kept) != len(s.selectedCodes)
		s.selectedCodes = kept
	}
	s.mu.Unlock()
	s.publish()
}

// HandleFieldsChange replaces the selected field codes.
func (s *Store) HandleFieldsChange(codes []string) {
	s.mu.Lock()
	if s.selectedCount > 1 {
		kept := make([]string, 0, len(codes))
		for _, code := range codes {
			if s.massAllowedLocked(code) {
				kept = append(kept, code)
			}
		}
		codes = kept
	}
	s.selectedCodes = append([]string{}, codes...)
	s.mu.Unlock()
	s.publish()
}

// UpdateForm applies fn to the form values.
func (s *Store) UpdateForm(fn func(f *Form)) {
	s.mu.Lock()
	fn(&s.form)
	s.mu.Unlock()
	s.publish()
}

// LoadStatusOptions offers the statuses reachable from the current
// statuses of items. A status reachable from every one of them is marked
// available for all. Items without a status code fall back to the fixed
// transition list.
func (s *Store) LoadStatusOptions(ctx context.Context, items []models.Item) {
	s.mu.Lock()
	if s.statusLoading {
		s.mu.Unlock()
		return
	}
	s.statusLoading = true
	s.mu.Unlock()
	s.publish()

	options := s.statusTransitions(ctx, items)

	s.mu.Lock()
	s.statusOptions = options
	s.statusLoading = false
	s.mu.Unlock()
	s.publish()
}

func (s *Store) statusTransitions(ctx context.Context, items []models.Item) []models.StatusTransition {
	if len(items) == 0 {
		return []models.StatusTransition{}
	}

	seen := make(map[string]bool)
	var codes []string
	for _, item := range items {
		if code := item.StatusCode(); code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		s.logger.Warn("selected items carry no status, offering the fixed list", map[string]interface{}{"items": len(items)})
		return models.FallbackStatusTransitions()
	}

	results := make([][]models.StatusTransition, len(codes))
	errs := make([]error, len(codes))
	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			results[i], errs[i] = s.source.StatusTransitions(ctx, string(filters.GroupActive), code)
		}(i, code)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.errors.Handle(ctx, "load-status-transitions", err, false)
		return []models.StatusTransition{}
	}
	return MergeTransitions(results)
}

// MergeTransitions merges per-status transition lists in first-seen order.
// A transition present in every list is available for all.
func MergeTransitions(lists [][]models.StatusTransition) []models.StatusTransition {
	counts := make(map[string]int)
	for _, list := range lists {
		for _, t := range list {
			counts[t.Code]++
		}
	}

	out := []models.StatusTransition{}
	added := make(map[string]bool)
	for _, list := range lists {
		for _, t := range list {
			if added[t.Code] {
				continue
			}
			added[t.Code] = true
			t.IsAvailableForAll = counts[t.Code] == len(lists)
			out = append(out, t)
		}
	}
	return out
}

// LoadUsers loads the responsible user choices.
func (s *Store) LoadUsers(ctx context.Context) {
	s.mu.Lock()
	if s.usersLoading {
		s.mu.Unlock()
		return
	}
	s.usersLoading = true
	s.mu.Unlock()

	users, err := s.source.Users(ctx)
	options := make([]UserOption, 0, len(users))
	if err != nil {
		s.errors.Handle(ctx, "load-users", err, false)
	}
	for _, u := range users {
		opt := UserOption{UID: u.UID, Name: unnamedUser}
		if u.EmployeeDisplay != nil && *u.EmployeeDisplay != "" {
			opt.Name = *u.EmployeeDisplay
		}
		if u.Location != nil {
			opt.City, opt.Timezone = u.Location.City, u.Location.Timezone
		}
		options = append(options, opt)
	}

	s.mu.Lock()
	s.userOptions = options
	s.usersLoading = false
	s.mu.Unlock()
	s.publish()
}

// LoadKeysCount fills the keys-count choices. The choices are fixed; the
// endpoint is only consulted so an outage shows up in the logs.
func (s *Store) LoadKeysCount(ctx context.Context) {
	s.mu.Lock()
	if s.keysCountLoading {
		s.mu.Unlock()
		return
	}
	s.keysCountLoading = true
	s.mu.Unlock()

	if _, err := s.source.KeysCount(ctx); err != nil {
		s.logger.Warn("keys count unavailable", map[string]interface{}{"error": err.Error()})
	}

	s.mu.Lock()
	s.keysCountOptions = models.KeysCountOptions()
	s.keysCountLoading = false
	s.mu.Unlock()
	s.publish()
}

// ResetForm clears the selection, the values and the option lists.
func (s *Store) ResetForm() {
	s.mu.Lock()
	s.selectedCodes = []string{}
	s.form = Form{}
	s.statusOptions = []models.StatusTransition{}
	s.userOptions = []UserOption{}
	s.keysCountOptions = []models.Option{}
	s.warning = false
	s.mu.Unlock()
	s.publish()
}

// Changes builds one change set per item uid from the selected fields
// that have a value.
func (s *Store) Changes(uids []string) []models.MassEditItem {
	s.mu.Lock()
	codes := append([]string(nil), s.selectedCodes...)
	form := s.form
	s.mu.Unlock()

	var rows []models.ChangedField
	for _, code := range codes {
		if v, ok := form.Value(code); ok {
			rows = append(rows, models.ChangedField{Code: code, Change: v})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	items := make([]models.MassEditItem, 0, len(uids))
	for _, uid := range uids {
		items = append(items, models.MassEditItem{UID: uid, Rows: append([]models.ChangedField(nil), rows...)})
	}
	return items
}

// Save applies the form to uids and sends the backend report to the
// notifier. The user needs the mass edit permission. Errors are returned.
func (s *Store) Save(ctx context.Context, uids []string) (*models.MassEditResult, error) {
	if len(uids) == 0 {
		return nil, ErrNoSelection
	}
	items := s.Changes(uids)
	if len(items) == 0 {
		return nil, ErrNoChanges
	}
	if s.access != nil {
		if err := s.access.Require(ctx, access.PermissionMassEdit); err != nil {
			return nil, s.errors.Handle(ctx, "mass-edit", err, true)
		}
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.publish()

	result, err := s.editor.Save(ctx, items)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.lastResult = result
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		s.errors.Handle(ctx, "mass-edit", err, true)
		return nil, err
	}

	if s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, "Массовое изменение", Report(result)); nerr != nil {
			s.logger.Warn("failed to deliver mass edit report", map[string]interface{}{"error": nerr.Error()})
		}
	}
	return result, nil
}

// Report renders a mass edit result as text.
func Report(r *models.MassEditResult) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "всего: %d, успешно: %d, с ошибками: %d", r.All, r.Successed, r.Failed)
	for _, item := range r.Report {
		if item.Message == "" && len(item.Rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", item.UID, item.Message)
		for _, row := range item.Rows {
			fmt.Fprintf(&b, "\n  %s: %s", row.Code, row.Message)
		}
	}
	return b.String()
}
