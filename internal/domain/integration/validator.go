package integration

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// variantRefPattern restricts variant reference codes to alphanumerics,
// underscore, hyphen, and dot.
var variantRefPattern = regexp.MustCompile(`^[\w\-.]*$`)

// ValidatorConfig describes the structural rules for one entity family.
type ValidatorConfig struct {
	// Family names the entity family in diagnostics and the aggregate error.
	Family EntityFamily
	// I18nFields are the base names of translatable fields; every language
	// variant of each must independently satisfy the per-field rules.
	I18nFields []string
	// MaxFieldLength bounds each field value (64/127/150/191 depending on
	// the entity type).
	MaxFieldLength int
	// RefCodeField, when set, names a field that must match the variant
	// reference pattern.
	RefCodeField string
}

// Validator runs per-record structural checks over a raw batch. Violations
// are logged as they are found; after the whole batch is scanned a single
// aggregate error is returned if anything failed. Upstream data quality is
// outside this system's control, so the point is to fail fast and loudly
// before corrupting the downstream store, not to auto-correct.
type Validator struct {
	cfg      ValidatorConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewValidator creates a validator for one entity family.
func NewValidator(cfg ValidatorConfig, logger *zap.Logger) *Validator {
	v := validator.New()
	// Field-level rules run through go-playground/validator; the variant
	// reference pattern is registered as a custom rule.
	_ = v.RegisterValidation("variantref", func(fl validator.FieldLevel) bool {
		return variantRefPattern.MatchString(fl.Field().String())
	})

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:      cfg,
		validate: v,
		logger:   logger.Named("validator").With(zap.String("family", cfg.Family.String())),
	}
}

// Validate scans the whole batch and returns a single aggregate error
// naming the entity family when any record violates a rule. No partial
// result is produced.
func (v *Validator) Validate(records []RawRecord) error {
	violations := 0

	// seen tracks values per field name for the uniqueness rule: all values
	// of one field must be mutually distinct, independently of other fields.
	seen := make(map[string]map[string]int64)

	for _, record := range records {
		id := record.Int("id")
		if !record.Has("id") {
			violations++
			v.logger.Warn("record missing remote identifier")
			continue
		}

		for _, base := range v.cfg.I18nFields {
			for _, field := range FieldNames(base) {
				value := record.Str(field)
				if value == "" {
					// Language variants fall back to the base value, which
					// is what the storefront will receive.
					value = record.Str(base)
				}
				violations += v.checkField(id, field, value, seen)
			}
		}

		if v.cfg.RefCodeField != "" {
			code := record.Str(v.cfg.RefCodeField)
			if err := v.validate.Var(code, "variantref"); err != nil {
				violations++
				v.logger.Warn("reference code has invalid characters",
					zap.Int64("id", id),
					zap.String("field", v.cfg.RefCodeField),
					zap.String("value", code))
			}
		}
	}

	if violations > 0 {
		v.logger.Error("batch failed validation", zap.Int("violations", violations))
		return NewValidationError(v.cfg.Family, violations)
	}
	return nil
}

// checkField applies the non-empty, length, and per-field uniqueness rules
// to one field value, returning the number of violations found.
func (v *Validator) checkField(id int64, field, value string, seen map[string]map[string]int64) int {
	if err := v.validate.Var(value, "required"); err != nil {
		v.logger.Warn("required field is empty", zap.Int64("id", id), zap.String("field", field))
		return 1
	}

	if v.cfg.MaxFieldLength > 0 {
		rule := fmt.Sprintf("max=%d", v.cfg.MaxFieldLength)
		if err := v.validate.Var(value, rule); err != nil {
			v.logger.Warn("field exceeds maximum length",
				zap.Int64("id", id),
				zap.String("field", field),
				zap.Int("max", v.cfg.MaxFieldLength),
				zap.Int("length", len(value)))
			return 1
		}
	}

	values, ok := seen[field]
	if !ok {
		values = make(map[string]int64)
		seen[field] = values
	}
	if otherID, dup := values[value]; dup && otherID != id {
		v.logger.Warn("duplicate value within field scope",
			zap.Int64("id", id),
			zap.Int64("conflicts_with", otherID),
			zap.String("field", field),
			zap.String("value", value))
		return 1
	}
	values[value] = id
	return 0
}
