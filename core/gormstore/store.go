package gormstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"relation-manager/core/reconcile"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var _ reconcile.Store = (*Store)(nil)

// Store implements reconcile.Store on top of GORM.
type Store struct {
	db       *gorm.DB
	registry *Registry
	validate *validator.Validate
	log      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store-level warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New returns a Store resolving child type names through registry.
func New(db *gorm.DB, registry *Registry, opts ...Option) *Store {
	s := &Store{
		db:       db,
		registry: registry,
		validate: newValidator(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying connection (the transaction inside Transaction).
func (s *Store) DB() *gorm.DB { return s.db }

// Registry returns the type registry.
func (s *Store) Registry() *Registry { return s.registry }

// Transaction runs fn with a Store bound to a single database transaction.
// Returning an error from fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := *s
		scoped.db = tx
		return fn(&scoped)
	})
}

func (s *Store) schemaOf(model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}
	return stmt.Schema, nil
}

func asModel(v any) (modeled, error) {
	m, ok := v.(modeled)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotModel, v)
	}
	return m, nil
}

// Create returns a new unsaved model of the named type.
func (s *Store) Create(childType string) (reconcile.Child, error) {
	v, err := s.registry.New(childType)
	if err != nil {
		return nil, err
	}
	return asModel(v)
}

// Find loads the model of the named type with the given identifier.
func (s *Store) Find(ctx context.Context, typeName, id string) (reconcile.Child, error) {
	v, err := s.registry.New(typeName)
	if err != nil {
		return nil, err
	}
	m, err := asModel(v)
	if err != nil {
		return nil, err
	}
	sch, err := s.schemaOf(v)
	if err != nil {
		return nil, err
	}
	pk := sch.PrioritizedPrimaryField
	values := parseIdentifiers(pk, []string{id})
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, sch.Name, id)
	}

	err = s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: pk.DBName}, Value: values[0]}).
		First(v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, sch.Name, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %q: %w", sch.Name, id, err)
	}
	return m, nil
}

// AssignAttributes decodes attrs onto child using json attribute names.
// Primary keys and automatic timestamps are never overwritten. Changed
// attributes are remembered until the next save. Values that cannot be
// converted to the attribute's type become validation errors on the child.
func (s *Store) AssignAttributes(child reconcile.Child, attrs reconcile.Record) error {
	m, err := asModel(child)
	if err != nil {
		return err
	}
	sch, err := s.schemaOf(child)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rv := reflect.ValueOf(child)
	before := make(map[*schema.Field]any, len(sch.Fields))
	for _, f := range sch.Fields {
		if f.DBName != "" {
			before[f] = f.ReflectValueOf(ctx, rv).Interface()
		}
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           child,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder for %s: %w", sch.Name, err)
	}
	m.base().assignErrs = nil
	if err := decoder.Decode(map[string]any(attrs)); err != nil {
		if err := rejectAttributes(m.base(), err); err != nil {
			return fmt.Errorf("failed to decode attributes onto %s: %w", sch.Name, err)
		}
		s.log.Debug("Rejected attribute values", zap.String("model", sch.Name), zap.Any("errors", m.base().assignErrs))
	}
	if len(md.Unused) > 0 {
		s.log.Debug("Ignored unknown attributes", zap.String("model", sch.Name), zap.Strings("attributes", md.Unused))
	}

	for f, old := range before {
		fv := f.ReflectValueOf(ctx, rv)
		if protected(f) {
			fv.Set(reflect.ValueOf(old))
			continue
		}
		if !reflect.DeepEqual(old, fv.Interface()) {
			m.base().markDirty(attributeName(f))
		}
	}
	return nil
}

// rejectAttributes attaches per-field decode failures to the model. Any other
// failure is returned.
func rejectAttributes(m *Model, err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var errs []error
		for _, e := range joined.Unwrap() {
			if e := rejectAttributes(m, e); e != nil {
				errs = append(errs, e)
			}
		}
		return errors.Join(errs...)
	}
	var de *mapstructure.DecodeError
	if !errors.As(err, &de) {
		return err
	}
	if inner, ok := de.Unwrap().(interface{ Unwrap() []error }); ok {
		return rejectAttributes(m, errors.Join(inner.Unwrap()...))
	}
	attr, _, _ := strings.Cut(de.Name(), ".")
	attr, _, _ = strings.Cut(attr, "[")
	m.rejectAttribute(attr, de.Unwrap().Error())
	return nil
}

func protected(f *schema.Field) bool {
	return f.PrimaryKey || f.AutoCreateTime > 0 || f.AutoUpdateTime > 0
}

// attributeName is the json name of a field, falling back to its column name.
func attributeName(f *schema.Field) string {
	if tag := f.StructField.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return f.DBName
}

// Validate runs ComputeAttributes, struct tag validation and immutability
// checks. Failures are attached to the model; the error return is reserved for
// validator misuse.
func (s *Store) Validate(ctx context.Context, child reconcile.Child) (bool, error) {
	m, err := asModel(child)
	if err != nil {
		return false, err
	}
	base := m.base()
	base.ClearErrors()
	base.restoreRejected()

	if c, ok := child.(AttributeComputer); ok {
		c.ComputeAttributes()
	}

	if err := s.validate.StructCtx(ctx, child); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, fmt.Errorf("failed to validate %s: %w", TypeName(child), err)
		}
		for _, fe := range verrs {
			base.AddError(fe.Field(), fieldMessage(fe))
		}
	}

	checkImmutability(child, base)
	return !base.HasErrors(), nil
}

func checkImmutability(child any, base *Model) {
	im, ok := child.(Immutable)
	if !ok || base.IsNew() || im.CanUpdate() {
		return
	}
	allowed := map[string]struct{}{}
	if pm, ok := child.(PartiallyMutable); ok {
		for _, attr := range pm.MutableAttributes() {
			allowed[attr] = struct{}{}
		}
	}
	for _, attr := range base.DirtyAttributes() {
		if _, ok := allowed[attr]; !ok {
			base.AddError(attr, im.WhyCantUpdate())
		}
	}
}

// Save validates and persists child without touching its associations.
// It returns false, and saves nothing, when validation fails.
func (s *Store) Save(ctx context.Context, child reconcile.Child) (bool, error) {
	ok, err := s.Validate(ctx, child)
	if err != nil || !ok {
		return false, err
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(child).Error; err != nil {
		return false, fmt.Errorf("failed to save %s: %w", TypeName(child), err)
	}
	child.(modeled).base().clean()
	return true, nil
}

// NoisyValidate is Validate with failures turned into a *ValidationError.
func (s *Store) NoisyValidate(ctx context.Context, child reconcile.Child) error {
	ok, err := s.Validate(ctx, child)
	if err != nil {
		return err
	}
	if !ok {
		return &ValidationError{Type: TypeName(child), Errors: child.Errors()}
	}
	return nil
}

// NoisySave is Save with validation failures turned into a *ValidationError.
func (s *Store) NoisySave(ctx context.Context, child reconcile.Child) error {
	ok, err := s.Save(ctx, child)
	if err != nil {
		return err
	}
	if !ok {
		return &ValidationError{Type: TypeName(child), Errors: child.Errors()}
	}
	return nil
}

// Delete removes the child row.
func (s *Store) Delete(ctx context.Context, child reconcile.Child) error {
	res := s.db.WithContext(ctx).Delete(child)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", TypeName(child), child.Identifier(), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, TypeName(child), child.Identifier())
	}
	return nil
}

// parseIdentifiers converts string identifiers to the primary key's Go type.
// Identifiers that cannot be converted cannot match any row and are dropped.
func parseIdentifiers(pk *schema.Field, ids []string) []any {
	kind := pk.FieldType.Kind()
	if kind == reflect.Ptr {
		kind = pk.FieldType.Elem().Kind()
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		switch kind {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				continue
			}
			values = append(values, n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(id, 10, 64)
			if err != nil {
				continue
			}
			values = append(values, n)
		default:
			values = append(values, id)
		}
	}
	return values
}
