// Package memory implementa los repositorios en memoria. Lo usan el simulador de línea
// de comandos (sin base de datos) y las pruebas de los casos de uso.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

var (
	_ repository.CompanyRepository      = (*CompanyRepo)(nil)
	_ repository.UserRepository         = (*UserRepo)(nil)
	_ repository.DocumentRepository     = (*DocumentRepo)(nil)
	_ repository.RuleSetRepository      = (*RuleSetRepo)(nil)
	_ repository.LegacyConfigRepository = (*LegacyConfigRepo)(nil)
	_ repository.CalculationRepository  = (*CalculationRepo)(nil)
)

// ── Companies ────────────────────────────────────────────────────────────────

// CompanyRepo empresas en memoria.
type CompanyRepo struct {
	mu   sync.RWMutex
	byID map[string]entity.Company
}

// NewCompanyRepo construye el repositorio vacío.
func NewCompanyRepo() *CompanyRepo { return &CompanyRepo{byID: map[string]entity.Company{}} }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.CNPJ == c.CNPJ {
			return domain.ErrDuplicate
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.byID[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CompanyRepo) GetByCNPJ(_ context.Context, cnpj string) (*entity.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byID {
		if c.CNPJ == cnpj {
			return &c, nil
		}
	}
	return nil, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

// UserRepo usuarios en memoria.
type UserRepo struct {
	mu   sync.RWMutex
	byID map[string]entity.User
}

// NewUserRepo construye el repositorio vacío.
func NewUserRepo() *UserRepo { return &UserRepo{byID: map[string]entity.User{}} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.CompanyID == u.CompanyID && strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepo) GetByEmailAndCompany(_ context.Context, email, companyID string) (*entity.User, error) {
	return r.find(func(u entity.User) bool {
		return u.CompanyID == companyID && strings.EqualFold(u.Email, email)
	})
}

func (r *UserRepo) find(match func(entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return &u, nil
		}
	}
	return nil, nil
}

// ── Documents ────────────────────────────────────────────────────────────────

// DocumentRepo documentos en memoria (copias defensivas de los ítems).
type DocumentRepo struct {
	mu   sync.RWMutex
	byID map[string]entity.Document
}

// NewDocumentRepo construye el repositorio vacío.
func NewDocumentRepo() *DocumentRepo { return &DocumentRepo{byID: map[string]entity.Document{}} }

func (r *DocumentRepo) Create(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.AccessKey != "" {
		for _, d := range r.byID {
			if d.CompanyID == doc.CompanyID && d.AccessKey == doc.AccessKey {
				return domain.ErrDuplicate
			}
		}
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	for i := range doc.Items {
		if doc.Items[i].ID == "" {
			doc.Items[i].ID = uuid.New().String()
		}
		doc.Items[i].DocumentID = doc.ID
	}
	r.byID[doc.ID] = cloneDocument(*doc)
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, companyID, id string) (*entity.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok || d.CompanyID != companyID {
		return nil, nil
	}
	out := cloneDocument(d)
	return &out, nil
}

func (r *DocumentRepo) GetByAccessKey(_ context.Context, companyID, accessKey string) (*entity.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.byID {
		if d.CompanyID == companyID && d.AccessKey == accessKey {
			out := cloneDocument(d)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *DocumentRepo) List(_ context.Context, companyID string, limit, offset int) ([]*entity.Document, error) {
	r.mu.RLock()
	var all []entity.Document
	for _, d := range r.byID {
		if d.CompanyID == companyID {
			all = append(all, d)
		}
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].IssueDate.Equal(all[j].IssueDate) {
			return all[i].IssueDate.After(all[j].IssueDate)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	out := make([]*entity.Document, 0, limit)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		d := all[i]
		d.Items = nil
		out = append(out, &d)
	}
	return out, nil
}

func cloneDocument(d entity.Document) entity.Document {
	d.Items = append([]entity.DocumentItem(nil), d.Items...)
	return d
}

// ── Rule sets ────────────────────────────────────────────────────────────────

// RuleSetRepo conjuntos de reglas en memoria.
type RuleSetRepo struct {
	mu   sync.RWMutex
	sets []rules.RuleSet
}

// NewRuleSetRepo construye el repositorio vacío.
func NewRuleSetRepo() *RuleSetRepo { return &RuleSetRepo{} }

func (r *RuleSetRepo) Create(_ context.Context, rs *rules.RuleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs.ID == "" {
		rs.ID = uuid.New().String()
	}
	for _, existing := range r.sets {
		if existing.ID == rs.ID {
			return domain.ErrDuplicate
		}
	}
	r.sets = append(r.sets, *rs)
	return nil
}

func (r *RuleSetRepo) GetByID(_ context.Context, id string) (*rules.RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rs := range r.sets {
		if rs.ID == id {
			out := rs
			return &out, nil
		}
	}
	return nil, nil
}

func (r *RuleSetRepo) List(_ context.Context, companyID string) ([]rules.RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []rules.RuleSet
	for _, rs := range r.sets {
		if rs.CompanyID == "" || rs.CompanyID == companyID {
			out = append(out, rs)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ValidFrom.After(out[j].ValidFrom) })
	return out, nil
}

// ListActiveAt replica la consulta de PostgreSQL: los propios vigentes ocultan a los globales.
func (r *RuleSetRepo) ListActiveAt(ctx context.Context, companyID string, at time.Time) ([]rules.RuleSet, error) {
	visible, _ := r.List(ctx, companyID)
	var own, global []rules.RuleSet
	for _, rs := range visible {
		if !rs.ActiveAt(at) {
			continue
		}
		if rs.CompanyID != "" {
			own = append(own, rs)
		} else {
			global = append(global, rs)
		}
	}
	if len(own) > 0 {
		return own, nil
	}
	return global, nil
}

// ── Legacy config ────────────────────────────────────────────────────────────

// LegacyConfigRepo configuración ICMS en memoria.
type LegacyConfigRepo struct {
	mu        sync.RWMutex
	ufConfigs []entity.LegacyUfConfig
	rates     []entity.LegacyIcmsRate
}

// NewLegacyConfigRepo construye el repositorio vacío.
func NewLegacyConfigRepo() *LegacyConfigRepo { return &LegacyConfigRepo{} }

func (r *LegacyConfigRepo) UpsertUfConfig(_ context.Context, cfg *entity.LegacyUfConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.ufConfigs {
		if c.EmitterUF == cfg.EmitterUF && c.RecipientUF == cfg.RecipientUF && sameDay(c.ValidFrom, cfg.ValidFrom) {
			cfg.ID = c.ID
			r.ufConfigs[i] = *cfg
			return nil
		}
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	r.ufConfigs = append(r.ufConfigs, *cfg)
	return nil
}

func (r *LegacyConfigRepo) ListUfConfigs(_ context.Context) ([]entity.LegacyUfConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entity.LegacyUfConfig(nil), r.ufConfigs...), nil
}

func (r *LegacyConfigRepo) UfConfigsActiveAt(_ context.Context, emitterUF, recipientUF string, at time.Time) ([]entity.LegacyUfConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.LegacyUfConfig
	for _, c := range r.ufConfigs {
		if c.EmitterUF == emitterUF && c.RecipientUF == recipientUF && c.ActiveAt(at) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *LegacyConfigRepo) UpsertIcmsRate(_ context.Context, rate *entity.LegacyIcmsRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.rates {
		if e.UF == rate.UF && e.NCM == rate.NCM && e.Category == rate.Category && sameDay(e.ValidFrom, rate.ValidFrom) {
			rate.ID = e.ID
			r.rates[i] = *rate
			return nil
		}
	}
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	r.rates = append(r.rates, *rate)
	return nil
}

func (r *LegacyConfigRepo) ListIcmsRates(_ context.Context, uf string) ([]entity.LegacyIcmsRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.LegacyIcmsRate
	for _, e := range r.rates {
		if uf == "" || e.UF == uf {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *LegacyConfigRepo) IcmsRatesActiveAt(_ context.Context, uf string, at time.Time) ([]entity.LegacyIcmsRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.LegacyIcmsRate
	for _, e := range r.rates {
		if e.UF == uf && e.ActiveAt(at) {
			out = append(out, e)
		}
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format(time.DateOnly) == b.UTC().Format(time.DateOnly)
}

// ── Calculations ─────────────────────────────────────────────────────────────

// CalculationRepo cálculos en memoria.
type CalculationRepo struct {
	mu    sync.RWMutex
	calcs []entity.Calculation
}

// NewCalculationRepo construye el repositorio vacío.
func NewCalculationRepo() *CalculationRepo { return &CalculationRepo{} }

func (r *CalculationRepo) Create(_ context.Context, calc *entity.Calculation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	for i := range calc.Items {
		if calc.Items[i].ID == "" {
			calc.Items[i].ID = uuid.New().String()
		}
		calc.Items[i].CalculationID = calc.ID
	}
	c := *calc
	c.Items = append([]entity.CalculationItem(nil), calc.Items...)
	r.calcs = append(r.calcs, c)
	return nil
}

func (r *CalculationRepo) GetByID(_ context.Context, companyID, id string) (*entity.Calculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.calcs {
		if c.ID == id && c.CompanyID == companyID {
			out := c
			out.Items = append([]entity.CalculationItem(nil), c.Items...)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *CalculationRepo) ListByDocument(_ context.Context, companyID, documentID string) ([]*entity.Calculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Calculation
	for i := len(r.calcs) - 1; i >= 0; i-- {
		c := r.calcs[i]
		if c.CompanyID == companyID && c.DocumentID == documentID {
			c.Items = nil
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── Tx ───────────────────────────────────────────────────────────────────────

// TxRunner ejecuta fn directamente sobre los repos en memoria (sin rollback).
type TxRunner struct {
	RuleSets  *RuleSetRepo
	LegacyCfg *LegacyConfigRepo
}

// RunConfig misma firma que el runner de PostgreSQL.
func (t *TxRunner) RunConfig(ctx context.Context, fn func(
	ruleSets repository.RuleSetRepository,
	legacyCfg repository.LegacyConfigRepository,
) error) error {
	return fn(t.RuleSets, t.LegacyCfg)
}
