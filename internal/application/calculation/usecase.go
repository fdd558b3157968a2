package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/ruleset"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/ibs"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/fiscal"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// Tipos de ejecución para métricas y logs.
const (
	KindCalculation = "calculation"
	KindSimulation  = "simulation"
)

// Recorder puerto de métricas (implementado por infrastructure/metrics).
type Recorder interface {
	ObserveCalculation(kind string, elapsed time.Duration, out transition.TransitionCalcOutput)
	CalculationFailed(kind, reason string)
}

// Config política del servicio.
type Config struct {
	// AllowMissingUfConfig deja correr documentos que necesitan DIFAL o ST sin configuración
	// de UF vigente; los ítems quedan marcados. Por defecto se rechazan con ErrMissingConfiguration.
	AllowMissingUfConfig bool
	// DefaultPassThrough repasse de las simulaciones que no lo informan (nil = 100).
	DefaultPassThrough *decimal.Decimal
}

// UseCase ejecuta el pipeline de cálculo: carga del documento y la configuración vigente,
// orquestación de ambos regímenes y persistencia del resultado.
type UseCase struct {
	docs      repository.DocumentRepository
	ruleSets  repository.RuleSetRepository
	legacyCfg repository.LegacyConfigRepository
	calcs     repository.CalculationRepository
	recorder  Recorder
	log       *logger.Logger
	cfg       Config
	now       func() time.Time
}

// NewUseCase construye el caso de uso. recorder puede ser nil.
func NewUseCase(
	docs repository.DocumentRepository,
	ruleSets repository.RuleSetRepository,
	legacyCfg repository.LegacyConfigRepository,
	calcs repository.CalculationRepository,
	recorder Recorder,
	log *logger.Logger,
	cfg Config,
) *UseCase {
	return &UseCase{
		docs:      docs,
		ruleSets:  ruleSets,
		legacyCfg: legacyCfg,
		calcs:     calcs,
		recorder:  recorder,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Calculate ejecuta la orquestación sin escenario y persiste el resultado.
func (uc *UseCase) Calculate(ctx context.Context, companyID, userID, documentID string) (*dto.CalculationResponse, error) {
	start := uc.now()
	out, err := uc.run(ctx, companyID, documentID, nil)
	if err != nil {
		uc.fail(KindCalculation, documentID, err)
		return nil, err
	}

	calc, err := toEntity(companyID, userID, out)
	if err != nil {
		uc.fail(KindCalculation, documentID, err)
		return nil, err
	}
	calc.CreatedAt = uc.now()
	if err := uc.calcs.Create(ctx, calc); err != nil {
		uc.fail(KindCalculation, documentID, err)
		return nil, fmt.Errorf("guardar cálculo: %w", err)
	}

	uc.observe(KindCalculation, start, out)
	uc.log.Info().
		Str("calculation_id", calc.ID).
		Str("document_id", documentID).
		Str("rule_set_id", out.RuleSetID).
		Int("year", out.Weights.Year).
		Int("unsupported_items", out.Summary.Legacy.UnsupportedItems).
		Str("total_tax", out.Summary.Transition.TotalTax.StringFixed(2)).
		Msg("cálculo persistido")

	resp := toResponse(calc)
	resp.Summary = &out.Summary
	resp.Items = out.Items
	return resp, nil
}

// Simulate ejecuta la orquestación con parámetros de escenario. No persiste.
func (uc *UseCase) Simulate(ctx context.Context, companyID, documentID string, in dto.ScenarioRequest) (*dto.SimulationResponse, error) {
	start := uc.now()
	scenario := &entity.ScenarioParams{
		TransitionFactor:        in.TransitionFactor,
		PricePassThroughPercent: in.PricePassThroughPercent,
		OverrideRates: entity.OverrideRates{
			IBSRate: in.OverrideRates.IBSRate,
			CBSRate: in.OverrideRates.CBSRate,
			ISRate:  in.OverrideRates.ISRate,
		},
	}
	if scenario.PricePassThroughPercent == nil {
		scenario.PricePassThroughPercent = uc.cfg.DefaultPassThrough
	}

	out, err := uc.run(ctx, companyID, documentID, scenario)
	if err != nil {
		uc.fail(KindSimulation, documentID, err)
		return nil, err
	}
	uc.observe(KindSimulation, start, out)
	uc.log.Debug().
		Str("document_id", documentID).
		Str("total_tax", out.Summary.Transition.TotalTax.StringFixed(2)).
		Str("simulated_total", out.Summary.IBS.SimulatedTotal.StringFixed(2)).
		Msg("simulación ejecutada")
	return &dto.SimulationResponse{TransitionCalcOutput: out}, nil
}

// Get devuelve un cálculo persistido con sus componentes decodificados.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.CalculationResponse, error) {
	calc, err := uc.calcs.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, domain.ErrNotFound
	}
	summary, items, err := DecodeComponents(calc)
	if err != nil {
		return nil, err
	}
	resp := toResponse(calc)
	resp.Summary = &summary
	resp.Items = items
	return resp, nil
}

// ListByDocument cabeceras de los cálculos del documento, más recientes primero.
func (uc *UseCase) ListByDocument(ctx context.Context, companyID, documentID string) (*dto.CalculationListResponse, error) {
	doc, err := uc.docs.GetByID(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.calcs.ListByDocument(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	out := &dto.CalculationListResponse{Items: make([]dto.CalculationResponse, 0, len(list))}
	for _, c := range list {
		out.Items = append(out.Items, *toResponse(c))
	}
	return out, nil
}

// run carga documento y configuración vigente y orquesta ambos regímenes.
func (uc *UseCase) run(ctx context.Context, companyID, documentID string, scenario *entity.ScenarioParams) (transition.TransitionCalcOutput, error) {
	doc, err := uc.docs.GetByID(ctx, companyID, documentID)
	if err != nil {
		return transition.TransitionCalcOutput{}, fmt.Errorf("cargar documento: %w", err)
	}
	if doc == nil {
		return transition.TransitionCalcOutput{}, domain.ErrNotFound
	}

	in, err := uc.loadInput(ctx, companyID, doc)
	if err != nil {
		return transition.TransitionCalcOutput{}, err
	}
	in.IBS.Scenario = scenario

	if err := ctx.Err(); err != nil {
		return transition.TransitionCalcOutput{}, err
	}
	return transition.Orchestrate(in)
}

// loadInput resuelve el conjunto de reglas y la configuración ICMS vigentes en la fecha de emisión.
func (uc *UseCase) loadInput(ctx context.Context, companyID string, doc *entity.Document) (transition.TransitionInput, error) {
	at := doc.IssueDate

	// El conjunto de reglas se resuelve en paralelo con la configuración ICMS.
	type rulesResult struct {
		in  *ibs.CalcInput
		err error
	}
	rulesCh := make(chan rulesResult, 1)
	go func() {
		rs, err := ruleset.ResolveActive(ctx, uc.ruleSets, companyID, at)
		if err != nil {
			rulesCh <- rulesResult{err: err}
			return
		}
		rulesCh <- rulesResult{in: &ibs.CalcInput{Document: *doc, RuleSet: *rs}}
	}()

	ufConfigs, err := uc.legacyCfg.UfConfigsActiveAt(ctx, doc.EmitterUF, doc.RecipientUF, at)
	if err != nil {
		<-rulesCh
		return transition.TransitionInput{}, fmt.Errorf("configuración de UF: %w", err)
	}
	rates, err := uc.legacyCfg.IcmsRatesActiveAt(ctx, doc.EmitterUF, at)
	if err != nil {
		<-rulesCh
		return transition.TransitionInput{}, fmt.Errorf("tabla de alícuotas: %w", err)
	}
	rr := <-rulesCh
	if rr.err != nil {
		return transition.TransitionInput{}, rr.err
	}

	if !uc.cfg.AllowMissingUfConfig && len(ufConfigs) == 0 {
		if path := requiredUfConfigPath(doc); path != "" {
			return transition.TransitionInput{}, fmt.Errorf("%w: %s requiere configuración ICMS vigente para %s->%s",
				domain.ErrMissingConfiguration, path, doc.EmitterUF, doc.RecipientUF)
		}
	}

	return transition.TransitionInput{
		IBS:       *rr.in,
		UfConfigs: ufConfigs,
		IcmsRates: rates,
	}, nil
}

// requiredUfConfigPath indica qué cálculo exige configuración de UF: DIFAL en operaciones
// interestatales o ST en ítems con CFOP de sustitución. Vacío = ninguno.
func requiredUfConfigPath(doc *entity.Document) string {
	if doc.IsInterstate() {
		return "DIFAL"
	}
	for _, it := range doc.Items {
		if fiscal.IsSTRelevantCFOP(it.CFOP) {
			return fmt.Sprintf("ST (ítem %d, CFOP %s)", it.LineNumber, it.CFOP)
		}
	}
	return ""
}

func (uc *UseCase) observe(kind string, start time.Time, out transition.TransitionCalcOutput) {
	if uc.recorder != nil {
		uc.recorder.ObserveCalculation(kind, uc.now().Sub(start), out)
	}
}

func (uc *UseCase) fail(kind, documentID string, err error) {
	reason := FailureReason(err)
	if uc.recorder != nil {
		uc.recorder.CalculationFailed(kind, reason)
	}
	ev := uc.log.Warn()
	if reason == "internal" || reason == "integrity" {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("document_id", documentID).Str("kind", kind).Str("reason", reason).Msg("cálculo rechazado")
}

// FailureReason clasifica el error para métricas.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrMissingConfiguration):
		return "missing_configuration"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, transition.ErrCompositionIntegrity):
		return "integrity"
	}
	return "internal"
}

// toEntity aplana el resultado: totales de cabecera en columnas y componentes como JSON.
func toEntity(companyID, userID string, out transition.TransitionCalcOutput) (*entity.Calculation, error) {
	summary, err := json.Marshal(out.Summary)
	if err != nil {
		return nil, fmt.Errorf("serializar resumen: %w", err)
	}
	calc := &entity.Calculation{
		CompanyID:     companyID,
		DocumentID:    out.DocumentID,
		RuleSetID:     out.RuleSetID,
		UfConfigID:    out.UfConfigID,
		IssueYear:     out.Weights.Year,
		IBSTotal:      out.Summary.IBS.IBSTotal,
		CBSTotal:      out.Summary.IBS.CBSTotal,
		ISTotal:       out.Summary.IBS.ISTotal,
		CreditTotal:   out.Summary.IBS.CreditTotal,
		LegacyTotal:   out.Summary.Legacy.TotalTax,
		TotalTax:      out.Summary.Transition.TotalTax,
		EffectiveRate: out.Summary.Transition.EffectiveRate,
		Unsupported:   out.Summary.Legacy.UnsupportedItems,
		Summary:       summary,
		CreatedBy:     userID,
	}
	for _, it := range out.Items {
		components, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("serializar ítem %s: %w", it.ItemID, err)
		}
		calc.Items = append(calc.Items, entity.CalculationItem{
			DocumentItemID: it.ItemID,
			LineNumber:     it.LineNumber,
			TotalTax:       it.Transition.TotalTax,
			Components:     components,
		})
	}
	return calc, nil
}

// DecodeComponents reconstruye resumen e ítems desde el JSON persistido.
func DecodeComponents(calc *entity.Calculation) (transition.PersistedSummaryComponents, []transition.PersistedItemComponents, error) {
	var summary transition.PersistedSummaryComponents
	if len(calc.Summary) > 0 {
		if err := json.Unmarshal(calc.Summary, &summary); err != nil {
			return summary, nil, fmt.Errorf("decodificar resumen de %s: %w", calc.ID, err)
		}
	}
	items := make([]transition.PersistedItemComponents, 0, len(calc.Items))
	for _, it := range calc.Items {
		var c transition.PersistedItemComponents
		if err := json.Unmarshal(it.Components, &c); err != nil {
			return summary, nil, fmt.Errorf("decodificar ítem %s: %w", it.DocumentItemID, err)
		}
		items = append(items, c)
	}
	return summary, items, nil
}

func toResponse(c *entity.Calculation) *dto.CalculationResponse {
	return &dto.CalculationResponse{
		ID:            c.ID,
		DocumentID:    c.DocumentID,
		RuleSetID:     c.RuleSetID,
		UfConfigID:    c.UfConfigID,
		IssueYear:     c.IssueYear,
		IBSTotal:      c.IBSTotal,
		CBSTotal:      c.CBSTotal,
		ISTotal:       c.ISTotal,
		CreditTotal:   c.CreditTotal,
		LegacyTotal:   c.LegacyTotal,
		TotalTax:      c.TotalTax,
		EffectiveRate: c.EffectiveRate,
		Unsupported:   c.Unsupported,
		CreatedAt:     c.CreatedAt,
	}
}
