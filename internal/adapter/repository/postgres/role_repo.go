package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

const roleColumns = `id, name, description, is_super, created_at, updated_at`

// RoleRepository implements usecase.RoleRepository on rbac_role,
// rbac_scope_rule and rbac_field_rule.
type RoleRepository struct {
	db DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts the role and its scope rules.
func (r *RoleRepository) Create(ctx context.Context, tx usecase.Transaction, role *domain.Role) error {
	q := pgxTx(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO rbac_role (id, name, description, is_super, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.Name, role.Description, role.IsSuper, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "role name")
	}

	return insertScopeRules(ctx, q, role.ScopeRules)
}

// Update rewrites the role row.
func (r *RoleRepository) Update(ctx context.Context, tx usecase.Transaction, role *domain.Role) error {
	tag, err := pgxTx(tx).Exec(ctx, `
		UPDATE rbac_role SET name = $2, description = $3, is_super = $4, updated_at = $5
		WHERE id = $1`,
		role.ID, role.Name, role.Description, role.IsSuper, role.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "role name")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// ReplaceScopeRules deletes the rules of roleID and inserts rules. Field
// rules go with their scope rule through ON DELETE CASCADE.
func (r *RoleRepository) ReplaceScopeRules(ctx context.Context, tx usecase.Transaction, roleID string, rules []domain.ScopeRule) (int, error) {
	q := pgxTx(tx)

	if _, err := q.Exec(ctx, `DELETE FROM rbac_scope_rule WHERE role_id = $1`, roleID); err != nil {
		return 0, err
	}
	if err := insertScopeRules(ctx, q, rules); err != nil {
		return 0, err
	}
	return len(rules), nil
}

// Delete removes the role. Scope and field rules cascade; a role still
// assigned to actors is rejected by the foreign key.
func (r *RoleRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) (int64, error) {
	tag, err := pgxTx(tx).Exec(ctx, `DELETE FROM rbac_role WHERE id = $1`, id)
	if err != nil {
		return 0, mapWriteError(err, "role")
	}
	return tag.RowsAffected(), nil
}

// GetByID reads the role and its rules from one snapshot.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.getOne(ctx, `SELECT `+roleColumns+` FROM rbac_role WHERE id = $1`, id)
}

// GetByName matches the name case-insensitively.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getOne(ctx, `SELECT `+roleColumns+` FROM rbac_role WHERE lower(name) = lower($1)`, name)
}

// List returns every role ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	var roles []*domain.Role

	err := readSnapshot(ctx, r.db, func(q pgx.Tx) error {
		rows, err := q.Query(ctx, `SELECT `+roleColumns+` FROM rbac_role ORDER BY name`)
		if err != nil {
			return err
		}
		roles, err = pgx.CollectRows(rows, scanRole)
		if err != nil {
			return err
		}
		return loadScopeRules(ctx, q, roles)
	})
	if err != nil {
		return nil, err
	}

	return roles, nil
}

func (r *RoleRepository) getOne(ctx context.Context, query string, arg string) (*domain.Role, error) {
	var role *domain.Role

	err := readSnapshot(ctx, r.db, func(q pgx.Tx) error {
		rows, err := q.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		role, err = pgx.CollectExactlyOneRow(rows, scanRole)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRoleNotFound
			}
			return err
		}
		return loadScopeRules(ctx, q, []*domain.Role{role})
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

func scanRole(row pgx.CollectableRow) (*domain.Role, error) {
	var role domain.Role
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.IsSuper,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	return &role, err
}

func insertScopeRules(ctx context.Context, q pgx.Tx, rules []domain.ScopeRule) error {
	for _, rule := range rules {
		_, err := q.Exec(ctx, `
			INSERT INTO rbac_scope_rule (id, role_id, scope, access_level, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rule.ID, rule.RoleID, string(rule.Scope), rule.AccessLevel.String(), rule.CreatedAt, rule.UpdatedAt,
		)
		if err != nil {
			return mapWriteError(err, fmt.Sprintf("scope rule %s", rule.Scope))
		}

		for _, field := range rule.FieldRules {
			_, err := q.Exec(ctx, `
				INSERT INTO rbac_field_rule (scope_rule_id, field_name, access_level)
				VALUES ($1, $2, $3)`,
				rule.ID, field.FieldName, field.AccessLevel.String(),
			)
			if err != nil {
				return mapWriteError(err, fmt.Sprintf("field rule %s", field.FieldName))
			}
		}
	}
	return nil
}

// loadScopeRules attaches scope and field rules to roles.
func loadScopeRules(ctx context.Context, q pgx.Tx, roles []*domain.Role) error {
	if len(roles) == 0 {
		return nil
	}

	ids := make([]string, len(roles))
	byID := make(map[string]*domain.Role, len(roles))
	for i, role := range roles {
		ids[i] = role.ID
		byID[role.ID] = role
	}

	fields, err := loadFieldRules(ctx, q, ids)
	if err != nil {
		return err
	}

	rows, err := q.Query(ctx, `
		SELECT id, role_id, scope, access_level, created_at, updated_at
		FROM rbac_scope_rule WHERE role_id = ANY($1) ORDER BY scope`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rule  domain.ScopeRule
			scope string
			level string
			ts    [2]time.Time
		)
		if err := rows.Scan(&rule.ID, &rule.RoleID, &scope, &level, &ts[0], &ts[1]); err != nil {
			return err
		}
		rule.Scope = domain.Scope(scope)
		if rule.AccessLevel, err = domain.ParseAccessLevel(level); err != nil {
			return err
		}
		rule.CreatedAt, rule.UpdatedAt = ts[0], ts[1]
		rule.FieldRules = fields[rule.ID]

		if role, ok := byID[rule.RoleID]; ok {
			role.ScopeRules = append(role.ScopeRules, rule)
		}
	}

	return rows.Err()
}

func loadFieldRules(ctx context.Context, q pgx.Tx, roleIDs []string) (map[string][]domain.FieldRule, error) {
	rows, err := q.Query(ctx, `
		SELECT f.scope_rule_id, f.field_name, f.access_level
		FROM rbac_field_rule f JOIN rbac_scope_rule s ON s.id = f.scope_rule_id
		WHERE s.role_id = ANY($1) ORDER BY f.field_name`, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.FieldRule)
	for rows.Next() {
		var ruleID, name, level string
		if err := rows.Scan(&ruleID, &name, &level); err != nil {
			return nil, err
		}
		parsed, err := domain.ParseAccessLevel(level)
		if err != nil {
			return nil, err
		}
		out[ruleID] = append(out[ruleID], domain.FieldRule{FieldName: name, AccessLevel: parsed})
	}

	return out, rows.Err()
}
