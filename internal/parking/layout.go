package parking

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v2"
)

type LayoutFormat string

const (
	LayoutJSON LayoutFormat = "json"
	LayoutYAML LayoutFormat = "yaml"
)

var validate = validator.New()

type LayoutSlot struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Type string `json:"type" yaml:"type" validate:"required,oneof=TwoWheeler FourWheeler Heavy"`
}

type LayoutFloor struct {
	FloorNo *int         `json:"floorNo" yaml:"floorNo" validate:"required"`
	Slots   []LayoutSlot `json:"slots" yaml:"slots" validate:"required,min=1,dive"`
}

// Layout is the on-disk description of a facility: floors in scan order,
// each with its slots in scan order.
type Layout struct {
	Floors []LayoutFloor `json:"floors" yaml:"floors" validate:"required,min=1,dive"`
}

func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open layout file %s: %w", path, err)
	}

	format := LayoutJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = LayoutYAML
	}

	return ParseLayout(data, format)
}

func ParseLayout(data []byte, format LayoutFormat) (*Layout, error) {
	var layout Layout

	switch format {
	case LayoutJSON:
		if err := json.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLayout, err.Error())
		}
	case LayoutYAML:
		if err := yaml.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLayout, err.Error())
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidLayout, format)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}

	return &layout, nil
}

func (l *Layout) Validate() error {
	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, describeFieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidLayout, strings.Join(problems, "; "))
		}
		return fmt.Errorf("%w: %s", ErrInvalidLayout, err.Error())
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Layout.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "oneof":
		return fmt.Sprintf("%s has invalid slot type %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// BuildFloors builds fresh, unoccupied floors from the layout.
func (l *Layout) BuildFloors() ([]*Floor, error) {
	floors := make([]*Floor, 0, len(l.Floors))
	for _, lf := range l.Floors {
		if lf.FloorNo == nil {
			return nil, fmt.Errorf("%w: floor number missing", ErrInvalidLayout)
		}

		slots := make([]*Slot, 0, len(lf.Slots))
		for _, ls := range lf.Slots {
			category, err := ParseSlotCategory(ls.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidLayout, err.Error())
			}
			slots = append(slots, NewSlot(ls.ID, category))
		}

		floors = append(floors, NewFloor(*lf.FloorNo, slots...))
	}

	if err := validateFloors(floors); err != nil {
		return nil, err
	}

	return floors, nil
}
