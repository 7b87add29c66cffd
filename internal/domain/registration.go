package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// JobOther is the select value that switches to the free text job
const JobOther = "other"

// DefaultMaxImageBytes caps each uploaded image
const DefaultMaxImageBytes int64 = 5 << 20

// Upload folders inside the images bucket
const (
	ProfileFolder = "profile"
	WorkFolder    = "work"
)

// AllowedImageTypes lists accepted image content types
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// ImageUpload is one file from the registration form
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegisterWorkerRequest is the registration form
type RegisterWorkerRequest struct {
	Name         string       `json:"name" validate:"required"`
	Job          string       `json:"job" validate:"required"`
	CustomJob    string       `json:"job_custom" validate:"required_if=Job other"`
	Location     string       `json:"location" validate:"required"`
	Phone        string       `json:"phone" validate:"required,egphone"`
	PhoneOther   string       `json:"phone_other" validate:"omitempty,egphone"`
	ProfileImage *ImageUpload `json:"-"`
	WorkImage    *ImageUpload `json:"-"`
}

// Messages shown for each failed rule, keyed by Struct.Field.tag
const (
	msgRequiredFields  = "يرجى ملء جميع الحقول المطلوبة"
	msgPhone           = "رقم الهاتف يجب أن يبدأ بـ 01 ويكون 11 رقم"
	msgPhoneOther      = "رقم الهاتف الإضافي يجب أن يبدأ بـ 01 ويكون 11 رقم"
	msgImageMissing    = "يرجى اختيار الصورة"
	msgImageType       = "نوع الملف غير مدعوم. استخدم JPG أو PNG"
	msgImageTooLarge   = "حجم الصورة يجب أن يكون أقل من 5MB"
	msgInvalidField    = "قيمة غير صالحة"
	msgRegistrationBad = "invalid registration"
)

// ValidationMessages maps a failed rule to the message shown to the user
var ValidationMessages = map[string]string{
	"RegisterWorkerRequest.Name.required":        msgRequiredFields,
	"RegisterWorkerRequest.Job.required":         msgRequiredFields,
	"RegisterWorkerRequest.CustomJob.required_if": msgRequiredFields,
	"RegisterWorkerRequest.Location.required":    msgRequiredFields,
	"RegisterWorkerRequest.Phone.required":       msgPhone,
	"RegisterWorkerRequest.Phone.egphone":        msgPhone,
	"RegisterWorkerRequest.PhoneOther.egphone":   msgPhoneOther,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("egphone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	return v
}

// Normalize trims text inputs and strips non digits from phone numbers
func (r *RegisterWorkerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Job = strings.TrimSpace(r.Job)
	r.CustomJob = strings.TrimSpace(r.CustomJob)
	r.Location = strings.TrimSpace(r.Location)
	r.Phone = NormalizePhone(r.Phone)
	r.PhoneOther = NormalizePhone(r.PhoneOther)
}

// ResolvedJob is the job stored for the worker
func (r *RegisterWorkerRequest) ResolvedJob() string {
	if r.Job == JobOther {
		return r.CustomJob
	}
	return r.Job
}

// Validate runs every rule before any upload or insert happens. The returned
// error is a ValidationError whose Fields carry the user facing messages.
func (r *RegisterWorkerRequest) Validate(maxImageBytes int64) error {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}

	fields := map[string]string{}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ValidationError{Message: err.Error()}
		}
		for _, fe := range verrs {
			key := fe.StructNamespace() + "." + fe.Tag()
			msg, ok := ValidationMessages[key]
			if !ok {
				msg = msgInvalidField
			}
			fields[jsonFieldName(fe.Field())] = msg
		}
	}

	if msg := validateImage(r.ProfileImage, maxImageBytes); msg != "" {
		fields["profile_image"] = msg
	}
	if msg := validateImage(r.WorkImage, maxImageBytes); msg != "" {
		fields["work_image"] = msg
	}

	if len(fields) > 0 {
		return ValidationError{Message: msgRegistrationBad, Fields: fields}
	}
	return nil
}

func validateImage(img *ImageUpload, maxBytes int64) string {
	if img == nil || len(img.Data) == 0 {
		return msgImageMissing
	}
	if !AllowedImageTypes[img.ContentType] {
		return msgImageType
	}
	if int64(len(img.Data)) > maxBytes {
		return msgImageTooLarge
	}
	return ""
}

var jsonNames = map[string]string{
	"Name":       "name",
	"Job":        "job",
	"CustomJob":  "job_custom",
	"Location":   "location",
	"Phone":      "phone",
	"PhoneOther": "phone_other",
}

func jsonFieldName(field string) string {
	if n, ok := jsonNames[field]; ok {
		return n
	}
	return strings.ToLower(field)
}

// ToWorker builds the row inserted after both images are uploaded
func (r *RegisterWorkerRequest) ToWorker(profileURL, workURL string) *Worker {
	w := &Worker{
		Name:         r.Name,
		Job:          r.ResolvedJob(),
		Location:     r.Location,
		Phone:        r.Phone,
		ProfileImage: profileURL,
		WorkImage:    workURL,
	}
	if r.PhoneOther != "" {
		other := r.PhoneOther
		w.PhoneOther = &other
	}
	return w
}
