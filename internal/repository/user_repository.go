package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/task-tracker-api/internal/database"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	store
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB, opts ...Option) UserRepository {
	return newGormUserRepository(db, opts...)
}

func newGormUserRepository(db *gorm.DB, opts ...Option) *GormUserRepository {
	return &GormUserRepository{store: newStore(db, opts)}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, 0, &user.Username, &user.Email); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	return r.resolveDuplicate(ctx, err, 0, &user.Username, &user.Email)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findBy(ctx, fieldUsername, username)
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, fieldEmail, email)
}

func (r *GormUserRepository) findBy(ctx context.Context, column, value string) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	err := db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).First(&user).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, apperrors.NotFoundBy("user", column, value)
		}
		return nil, translateError(err)
	}
	return &user, nil
}

// List retrieves users with search, sorting and pagination
func (r *GormUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	base := func() *gorm.DB {
		return database.Search(filter.Search, "users.username", "users.email", "users.full_name")(db.Model(&models.User{}))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	users := []models.User{}
	err := base().
		Scopes(
			database.Sort("users", UserSortColumns, DefaultSortColumn, filter.SortBy, filter.SortOrder),
			database.Paginate(filter.Limit, filter.Offset),
		).
		Find(&users).Error
	if err != nil {
		return nil, 0, translateError(err)
	}

	return users, total, nil
}

// Search returns users matching term in username, full name or email,
// ranked in that order and newest first within a rank.
func (r *GormUserRepository) Search(ctx context.Context, term string, limit, offset int) ([]models.User, error) {
	if term == "" {
		return nil, apperrors.EmptyInput("search term is required")
	}

	pattern := database.ContainsPattern(term)
	rank := clause.OrderBy{
		Expression: clause.Expr{
			SQL: "CASE WHEN LOWER(users.username) LIKE ? THEN 1 " +
				"WHEN LOWER(users.full_name) LIKE ? THEN 2 " +
				"WHEN LOWER(users.email) LIKE ? THEN 3 ELSE 4 END, users.created_at DESC, users.id DESC",
			Vars:               []interface{}{pattern, pattern, pattern},
			WithoutParentheses: true,
		},
	}

	users := []models.User{}
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.
		Scopes(
			database.Search(term, "users.username", "users.email", "users.full_name"),
			database.Paginate(limit, offset),
		).
		Clauses(rank).
		Find(&users).Error
	if err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

// Update applies the supplied changes and refreshes user from the stored row
func (r *GormUserRepository) Update(ctx context.Context, user *models.User, changes UserChanges) error {
	if changes.IsEmpty() {
		return apperrors.EmptyUpdate()
	}

	values := map[string]interface{}{}
	if changes.Username != nil {
		values["username"] = *changes.Username
	}
	if changes.Email != nil {
		values["email"] = *changes.Email
	}
	if changes.FullName != nil {
		values["full_name"] = *changes.FullName
	}

	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, user.ID, changes.Username, changes.Email); err != nil {
			return err
		}

		result := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("user", user.ID)
		}

		var updated models.User
		if err := tx.First(&updated, user.ID).Error; err != nil {
			return notFoundOr(err, "user", user.ID)
		}
		*user = updated
		return nil
	})
	return r.resolveDuplicate(ctx, err, user.ID, changes.Username, changes.Email)
}

// Delete clears the user's assignments and removes the user atomically.
// Cleared tasks keep their updated_at.
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) (int64, error) {
	var unassigned int64
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("assigned_to = ?", id).UpdateColumn("assigned_to", nil)
		if result.Error != nil {
			return result.Error
		}
		unassigned = result.RowsAffected

		result = tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("user", id)
		}
		return nil
	})
	if err != nil {
		return 0, translateError(err)
	}
	return unassigned, nil
}

// Stats computes task counts over the tasks assigned to the user
func (r *GormUserRepository) Stats(ctx context.Context, id uint64) (*TaskStats, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	if err := ensureUserExists(db, id); err != nil {
		if apperrors.IsKind(err, apperrors.KindReferenceViolation) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, translateError(err)
	}

	today := models.DateOnly(r.now().UTC())
	return taskStats(db.Model(&models.Task{}).Where("tasks.assigned_to = ?", id), today)
}

// ensureUnique reports a DuplicateKey when another user already holds the
// username or email. excludeID skips the user being updated.
func ensureUnique(tx *gorm.DB, excludeID uint64, username, email *string) error {
	checks := []struct {
		field string
		value *string
	}{
		{fieldUsername, username},
		{fieldEmail, email},
	}

	for _, check := range checks {
		if check.value == nil {
			continue
		}

		query := tx.Model(&models.User{}).Where(clause.Eq{Column: clause.Column{Name: check.field}, Value: *check.value})
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.DuplicateKey("user", check.field)
		}
	}
	return nil
}

// resolveDuplicate classifies err and, when a unique violation came from the
// database without naming its column, finds the colliding field by lookup.
func (r *GormUserRepository) resolveDuplicate(ctx context.Context, err error, excludeID uint64, username, email *string) error {
	err = translateError(err)
	if !apperrors.IsKind(err, apperrors.KindDuplicateKey) || apperrors.FieldOf(err) != "" {
		return err
	}

	db, cancel := r.session(ctx)
	defer cancel()

	dup, ok := ensureUnique(db, excludeID, username, email).(*apperrors.Error)
	if ok && dup.Kind == apperrors.KindDuplicateKey {
		dup.Err = err
		return dup
	}
	return err
}
