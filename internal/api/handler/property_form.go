package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/blobstore"
)

const multipartMemory = 32 << 20

// Listing form fields with the Portuguese aliases older clients send.
var (
	fieldName            = []string{"name", "nome"}
	fieldDescription     = []string{"description", "descricao"}
	fieldContactMethod   = []string{"contactMethod"}
	fieldContact         = []string{"contact", "contato"}
	fieldTransactionType = []string{"transactionType"}
	fieldPropertyType    = []string{"propertyType"}
	fieldSalePrice       = []string{"salePrice"}
	fieldRentalPrice     = []string{"rentalPrice"}
	fieldRentalPeriod    = []string{"rentalPeriod"}
	fieldNeighborhood    = []string{"neighborhood"}
	fieldCoords          = []string{"coords"}
	fieldImages          = []string{"images", "imagens"}
)

type imageLimits struct {
	maxCount int
	maxBytes int64
}

// propertyForm is a parsed listing form. Presence matters: in an update a
// field sent empty clears it, a field left out keeps its stored value.
type propertyForm struct {
	values map[string][]string
	images []blobstore.Object
}

func parsePropertyForm(w http.ResponseWriter, r *http.Request, limits imageLimits) (*propertyForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(limits.maxCount)*limits.maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, common.BadRequest("request body too large")
		}
		return nil, common.BadRequest("invalid form data")
	}
	form := &propertyForm{values: r.PostForm}
	if r.MultipartForm == nil {
		return form, nil
	}

	var files []*multipart.FileHeader
	for _, name := range fieldImages {
		files = append(files, r.MultipartForm.File[name]...)
	}
	if limits.maxCount > 0 && len(files) > limits.maxCount {
		return nil, common.Validation(fmt.Sprintf("at most %d images per request", limits.maxCount))
	}
	for _, fh := range files {
		obj, err := readImage(fh, limits.maxBytes)
		if err != nil {
			return nil, err
		}
		form.images = append(form.images, obj)
	}
	return form, nil
}

// readImage loads an uploaded file and checks its sniffed type and size.
func readImage(fh *multipart.FileHeader, maxBytes int64) (blobstore.Object, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return blobstore.Object{}, common.Validation(fmt.Sprintf("image %q exceeds %d MB", fh.Filename, maxBytes>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return blobstore.Object{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	var src io.Reader = f
	if maxBytes > 0 {
		src = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return blobstore.Object{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return blobstore.Object{}, common.Validation(fmt.Sprintf("image %q exceeds %d MB", fh.Filename, maxBytes>>20))
	}
	contentType := http.DetectContentType(data)
	if _, ok := blobstore.AllowedContentTypes[contentType]; !ok {
		return blobstore.Object{}, common.Validation(fmt.Sprintf("image %q must be a JPEG, PNG, WebP or GIF", fh.Filename))
	}
	return blobstore.Object{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: contentType,
		Filename:    fh.Filename,
	}, nil
}

func (f *propertyForm) lookup(names []string) (string, bool) {
	for _, name := range names {
		if vs, ok := f.values[name]; ok && len(vs) > 0 {
			return strings.TrimSpace(vs[0]), true
		}
	}
	return "", false
}

func (f *propertyForm) text(names []string) string {
	v, _ := f.lookup(names)
	return v
}

// draft builds a new listing; omitted fields take their defaults later.
func (f *propertyForm) draft() (*model.Property, error) {
	p := &model.Property{
		Name:          f.text(fieldName),
		Description:   f.text(fieldDescription),
		ContactMethod: f.text(fieldContactMethod),
		Contact:       f.text(fieldContact),
		PropertyType:  f.text(fieldPropertyType),
		RentalPeriod:  optionalText(f.text(fieldRentalPeriod)),
		Neighborhood:  optionalText(f.text(fieldNeighborhood)),
		Images:        []string{},
	}
	if raw := f.text(fieldTransactionType); raw != "" {
		tt, err := model.ParseTransactionType(raw)
		if err != nil {
			return nil, err
		}
		p.TransactionType = tt
	}
	var err error
	if p.SalePrice, err = parsePrice("salePrice", f.text(fieldSalePrice)); err != nil {
		return nil, err
	}
	if p.RentalPrice, err = parsePrice("rentalPrice", f.text(fieldRentalPrice)); err != nil {
		return nil, err
	}
	raw := f.text(fieldCoords)
	if raw == "" {
		return nil, common.Validation("coords is required")
	}
	if p.Coords, err = model.ParseCoords(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// update builds a partial update from the fields present in the form.
func (f *propertyForm) update() (model.PropertyUpdate, error) {
	var upd model.PropertyUpdate
	setText := func(dst *model.Optional[string], names []string) {
		if v, ok := f.lookup(names); ok {
			*dst = model.Some(v)
		}
	}
	setText(&upd.Name, fieldName)
	setText(&upd.Description, fieldDescription)
	setText(&upd.ContactMethod, fieldContactMethod)
	setText(&upd.Contact, fieldContact)
	setText(&upd.PropertyType, fieldPropertyType)

	if v, ok := f.lookup(fieldTransactionType); ok {
		tt, err := model.ParseTransactionType(v)
		if err != nil {
			return upd, err
		}
		upd.TransactionType = model.Some(tt)
	}
	if v, ok := f.lookup(fieldSalePrice); ok {
		price, err := parsePrice("salePrice", v)
		if err != nil {
			return upd, err
		}
		upd.SalePrice = model.Some(price)
	}
	if v, ok := f.lookup(fieldRentalPrice); ok {
		price, err := parsePrice("rentalPrice", v)
		if err != nil {
			return upd, err
		}
		upd.RentalPrice = model.Some(price)
	}
	if v, ok := f.lookup(fieldRentalPeriod); ok {
		upd.RentalPeriod = model.Some(optionalText(v))
	}
	if v, ok := f.lookup(fieldNeighborhood); ok {
		upd.Neighborhood = model.Some(optionalText(v))
	}
	// an empty coords field keeps the stored position
	if v := f.text(fieldCoords); v != "" {
		c, err := model.ParseCoords(v)
		if err != nil {
			return upd, err
		}
		upd.Coords = model.Some(c)
	}
	return upd, nil
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// parsePrice reads an optional amount; a decimal comma is accepted.
func parsePrice(field, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") {
		v, err = strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	}
	if err != nil {
		return nil, common.Validation(field + " must be a number")
	}
	return &v, nil
}
