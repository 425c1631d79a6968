package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
)

type PropertyRepository interface {
	ListAll(ctx context.Context) ([]model.Property, error)
	FindByID(ctx context.Context, id string) (*model.Property, error)
	Create(ctx context.Context, p *model.Property) error
	// Update writes only the fields set in upd. Unless actor is a moderator the
	// statement is restricted to rows the actor owns.
	Update(ctx context.Context, id string, upd model.PropertyUpdate, actor model.Actor) (*model.Property, error)
	// Delete returns the number of rows removed; 0 is not an error.
	Delete(ctx context.Context, id string, actor model.Actor) (int64, error)
	// RemoveImage drops every occurrence of ref and reports whether any existed.
	RemoveImage(ctx context.Context, id, ref string, actor model.Actor) (*model.Property, bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.PropertyImages, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	RenameOwner(ctx context.Context, ownerID, username string) (int64, error)
}

type sqlPropertyRepository struct {
	db      database.DBTX
	dialect database.Dialect
	now     func() time.Time
}

func NewSQLPropertyRepository(db database.DBTX, dialect database.Dialect) PropertyRepository {
	return &sqlPropertyRepository{db: db, dialect: dialect, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

const propertySelect = `SELECT p.id, p.name, p.description, p.contact_method, p.contact,
       p.transaction_type, p.property_type, p.sale_price, p.rental_price, p.rental_period,
       p.lat, p.lng, p.neighborhood, p.owner_id, p.owner_username, p.images,
       p.created_at, p.updated_at, u.email, u.phone
FROM properties p
LEFT JOIN users u ON u.id = p.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*model.Property, error) {
	var (
		p                          model.Property
		transactionType, images    string
		salePrice, rentalPrice     sql.NullFloat64
		rentalPeriod, neighborhood sql.NullString
		ownerEmail, ownerPhone     sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ContactMethod, &p.Contact,
		&transactionType, &p.PropertyType, &salePrice, &rentalPrice, &rentalPeriod,
		&p.Coords.Lat, &p.Coords.Lng, &neighborhood, &p.OwnerID, &p.OwnerUsername, &images,
		&p.CreatedAt, &p.UpdatedAt, &ownerEmail, &ownerPhone,
	)
	if err != nil {
		return nil, err
	}
	p.TransactionType = model.TransactionType(transactionType)
	p.Icon = model.PropertyIcon(p.PropertyType)
	p.SalePrice = nullableFloat(salePrice)
	p.RentalPrice = nullableFloat(rentalPrice)
	p.RentalPeriod = nullableString(rentalPeriod)
	p.Neighborhood = nullableString(neighborhood)
	p.OwnerEmail = nullableString(ownerEmail)
	p.OwnerPhone = nullableString(ownerPhone)
	if p.Images, err = decodeImages(images); err != nil {
		return nil, fmt.Errorf("property %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *sqlPropertyRepository) ListAll(ctx context.Context) ([]model.Property, error) {
	rows, err := r.db.QueryContext(ctx, propertySelect+` ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.ListAll: %w", err)
	}
	defer rows.Close()

	properties := []model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlPropertyRepository.ListAll: %w", err)
		}
		properties = append(properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.ListAll: %w", err)
	}
	return properties, nil
}

func (r *sqlPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(propertySelect+` WHERE p.id = ?`), id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound("property not found")
		}
		return nil, fmt.Errorf("sqlPropertyRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *sqlPropertyRepository) Create(ctx context.Context, p *model.Property) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return fmt.Errorf("sqlPropertyRepository.Create: %w", err)
	}
	now := r.now()
	query := r.dialect.Rebind(`INSERT INTO properties (id, name, description, contact_method, contact,
	          transaction_type, property_type, sale_price, rental_price, rental_period,
	          lat, lng, neighborhood, owner_id, owner_username, images, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.ContactMethod, p.Contact,
		string(p.TransactionType), p.PropertyType, p.SalePrice, p.RentalPrice, p.RentalPeriod,
		p.Coords.Lat, p.Coords.Lng, p.Neighborhood, p.OwnerID, p.OwnerUsername, images, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlPropertyRepository.Create: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (r *sqlPropertyRepository) Update(ctx context.Context, id string, upd model.PropertyUpdate, actor model.Actor) (*model.Property, error) {
	if upd.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	sets, args, err := updateAssignments(upd)
	if err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.Update: %w", err)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now())

	where, whereArgs := ownedRow(id, actor)
	query := r.dialect.Rebind(`UPDATE properties SET ` + strings.Join(sets, ", ") + where)
	res, err := r.db.ExecContext(ctx, query, append(args, whereArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.Update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.Update: %w", err)
	}
	if n == 0 {
		// either gone or owned by someone else
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, common.Forbidden("you can only modify your own listings")
	}
	return r.FindByID(ctx, id)
}

func updateAssignments(upd model.PropertyUpdate) ([]string, []any, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.Name.Set {
		set("name", upd.Name.Value)
	}
	if upd.Description.Set {
		set("description", upd.Description.Value)
	}
	if upd.ContactMethod.Set {
		set("contact_method", upd.ContactMethod.Value)
	}
	if upd.Contact.Set {
		set("contact", upd.Contact.Value)
	}
	if upd.TransactionType.Set {
		set("transaction_type", string(upd.TransactionType.Value))
	}
	if upd.PropertyType.Set {
		set("property_type", upd.PropertyType.Value)
	}
	if upd.SalePrice.Set {
		set("sale_price", upd.SalePrice.Value)
	}
	if upd.RentalPrice.Set {
		set("rental_price", upd.RentalPrice.Value)
	}
	if upd.RentalPeriod.Set {
		set("rental_period", upd.RentalPeriod.Value)
	}
	if upd.Neighborhood.Set {
		set("neighborhood", upd.Neighborhood.Value)
	}
	if upd.Coords.Set {
		set("lat", upd.Coords.Value.Lat)
		set("lng", upd.Coords.Value.Lng)
	}
	if upd.Images.Set {
		images, err := encodeImages(upd.Images.Value)
		if err != nil {
			return nil, nil, err
		}
		set("images", images)
	}
	return sets, args, nil
}

func ownedRow(id string, actor model.Actor) (string, []any) {
	if actor.IsModerator {
		return ` WHERE id = ?`, []any{id}
	}
	return ` WHERE id = ? AND owner_id = ?`, []any{id, actor.UserID}
}

func (r *sqlPropertyRepository) Delete(ctx context.Context, id string, actor model.Actor) (int64, error) {
	where, args := ownedRow(id, actor)
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM properties`+where), args...)
	if err != nil {
		return 0, fmt.Errorf("sqlPropertyRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlPropertyRepository.Delete: %w", err)
	}
	return n, nil
}

func (r *sqlPropertyRepository) RemoveImage(ctx context.Context, id, ref string, actor model.Actor) (*model.Property, bool, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	kept := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img != ref {
			kept = append(kept, img)
		}
	}
	if len(kept) == len(p.Images) {
		return p, false, nil
	}
	updated, err := r.Update(ctx, id, model.PropertyUpdate{Images: model.Some(kept)}, actor)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func (r *sqlPropertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.PropertyImages, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`SELECT id, images FROM properties WHERE owner_id = ? ORDER BY created_at, id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.ListByOwner: %w", err)
	}
	defer rows.Close()

	var out []model.PropertyImages
	for rows.Next() {
		var item model.PropertyImages
		var images string
		if err := rows.Scan(&item.ID, &images); err != nil {
			return nil, fmt.Errorf("sqlPropertyRepository.ListByOwner: %w", err)
		}
		if item.Images, err = decodeImages(images); err != nil {
			return nil, fmt.Errorf("sqlPropertyRepository.ListByOwner: property %s: %w", item.ID, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlPropertyRepository.ListByOwner: %w", err)
	}
	return out, nil
}

func (r *sqlPropertyRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM properties WHERE owner_id = ?`), ownerID)
	if err != nil {
		return 0, fmt.Errorf("sqlPropertyRepository.DeleteByOwner: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqlPropertyRepository) RenameOwner(ctx context.Context, ownerID, username string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`UPDATE properties SET owner_username = ? WHERE owner_id = ?`), username, ownerID)
	if err != nil {
		return 0, fmt.Errorf("sqlPropertyRepository.RenameOwner: %w", err)
	}
	return res.RowsAffected()
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeImages(raw string) ([]string, error) {
	images := []string{}
	if strings.TrimSpace(raw) == "" {
		return images, nil
	}
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

func nullableFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
