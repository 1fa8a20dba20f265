// Package forms binds submitted HTML forms through gin's binding layer and
// turns validation failures into per-field messages for re-rendering.
package forms

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/url"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired = "This field is required."
	MsgInvalid  = "Enter a valid value."
	MsgUnread   = "The form could not be read."
)

var fileHeaderType = reflect.TypeOf((*multipart.FileHeader)(nil))

// Form carries submitted values and errors back to the template.
type Form struct {
	Values         url.Values
	Errors         map[string][]string
	NonFieldErrors []string
}

// New returns an empty, valid form.
func New() *Form {
	return &Form{Values: url.Values{}, Errors: map[string][]string{}}
}

// Value is the submitted value of a field, for redisplay.
func (f *Form) Value(name string) string {
	if f == nil {
		return ""
	}
	return f.Values.Get(name)
}

func (f *Form) FieldErrors(name string) []string {
	if f == nil {
		return nil
	}
	return f.Errors[name]
}

func (f *Form) AddError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

func (f *Form) AddNonFieldError(msg string) {
	f.NonFieldErrors = append(f.NonFieldErrors, msg)
}

func (f *Form) Valid() bool {
	return len(f.Errors) == 0 && len(f.NonFieldErrors) == 0
}

// Bind maps the request onto dst (a pointer to a struct with `form` and
// `binding` tags), trims string fields unless tagged `strip:"false"`, then
// validates. The returned Form is never nil.
func Bind(c *gin.Context, dst any) *Form {
	f := New()

	if err := c.ShouldBind(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			// malformed body; still echo whatever was parsed
			slog.Warn("bind form", "path", c.Request.URL.Path, "error", err)
			f.Values = submitted(c)
			f.AddNonFieldError(MsgUnread)
			return f
		}
	}
	f.Values = submitted(c)

	attachFiles(c, dst)
	stripStrings(dst)
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			f.AddNonFieldError(err.Error())
			return f
		}
		t := reflect.TypeOf(dst).Elem()
		for _, fe := range verrs {
			f.AddError(formName(t, fe.StructField()), message(fe))
		}
	}
	return f
}

func submitted(c *gin.Context) url.Values {
	if c.Request.PostForm == nil {
		return url.Values{}
	}
	return c.Request.PostForm
}

// attachFiles sets every *multipart.FileHeader field from the uploaded file
// parts alone. gin's mapper would otherwise fill the header's exported fields
// from plain text values, yielding a header with no content behind it.
func attachFiles(c *gin.Context, dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Type != fileHeaderType || !v.Field(i).CanSet() {
			continue
		}
		var fh *multipart.FileHeader
		if mf := c.Request.MultipartForm; mf != nil {
			if files := mf.File[formName(t, sf.Name)]; len(files) > 0 {
				fh = files[0]
			}
		}
		v.Field(i).Set(reflect.ValueOf(fh))
	}
}

func formName(t reflect.Type, structField string) string {
	if sf, ok := t.FieldByName(structField); ok {
		if name, _, _ := strings.Cut(sf.Tag.Get("form"), ","); name != "" {
			return name
		}
	}
	return strings.ToLower(structField)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), runeLen(fe.Value()))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	default:
		return MsgInvalid
	}
}

func runeLen(v any) int {
	if s, ok := v.(string); ok {
		return len([]rune(s))
	}
	return 0
}

func stripStrings(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Type.Kind() != reflect.String || sf.Tag.Get("strip") == "false" || !v.Field(i).CanSet() {
			continue
		}
		v.Field(i).SetString(strings.TrimSpace(v.Field(i).String()))
	}
}
