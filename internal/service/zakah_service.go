package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Troy ounce in grams; metal APIs quote per ounce, Nisab is defined in grams.
var gramsPerOunce = decimal.RequireFromString("31.1035")

// Nisab thresholds in grams of metal.
var (
	nisabGoldGrams   = decimal.NewFromInt(85)
	nisabSilverGrams = decimal.NewFromInt(595)
)

// Reference ratios derived from the gold Nisab. Dowry and theft nisab are
// both a quarter dinar (1.0625 g of gold, 0.0125 of the 85 g threshold).
var (
	dowryRatio      = decimal.RequireFromString("0.0125")
	theftRatio      = decimal.RequireFromString("0.0125")
	bloodMoneyRatio = decimal.NewFromInt(50)
)

// Used when a price API is down so the dashboard never goes empty; overwritten
// by the first successful refresh.
var (
	fallbackGoldUSD   = decimal.NewFromInt(2400)
	fallbackSilverUSD = decimal.NewFromInt(28)
	fallbackUSDNGN    = decimal.NewFromInt(1500)
)

// ZakahService maintains the Nisab cache and derived reference amounts from
// public metal-price and FX APIs.
type ZakahService struct {
	repo        *repository.ZakahRepository
	http        *http.Client
	rateAPIURL  string
	metalAPIURL string
	log         zerolog.Logger
}

func NewZakahService(repo *repository.ZakahRepository, rateAPIURL, metalAPIURL string, log zerolog.Logger) *ZakahService {
	return &ZakahService{
		repo:        repo,
		http:        &http.Client{Timeout: 15 * time.Second},
		rateAPIURL:  rateAPIURL,
		metalAPIURL: metalAPIURL,
		log:         log.With().Str("component", "zakah").Logger(),
	}
}

// ComputeNisab converts per-ounce USD metal prices into NGN thresholds.
func ComputeNisab(goldPerOunceUSD, silverPerOunceUSD, usdNGN decimal.Decimal) (goldNGN, silverNGN decimal.Decimal) {
	goldPerGram := goldPerOunceUSD.Div(gramsPerOunce)
	silverPerGram := silverPerOunceUSD.Div(gramsPerOunce)
	goldNGN = goldPerGram.Mul(nisabGoldGrams).Mul(usdNGN).Round(2)
	silverNGN = silverPerGram.Mul(nisabSilverGrams).Mul(usdNGN).Round(2)
	return goldNGN, silverNGN
}

// DeriveReferences computes the fixed-ratio amounts from the gold Nisab.
func DeriveReferences(nisabGoldNGN decimal.Decimal) []models.ZakahReference {
	return []models.ZakahReference{
		{
			Key:       "minimum_dowry",
			Title:     "Minimum Dowry (Mahr)",
			AmountNGN: nisabGoldNGN.Mul(dowryRatio).Round(2),
		},
		{
			Key:       "blood_money",
			Title:     "Blood Money (Diyah)",
			AmountNGN: nisabGoldNGN.Mul(bloodMoneyRatio).Round(2),
		},
		{
			Key:       "theft_nisab",
			Title:     "Theft Nisab",
			AmountNGN: nisabGoldNGN.Mul(theftRatio).Round(2),
		},
	}
}

// RefreshNisab pulls fresh metal prices and the USD/NGN rate, recomputes the
// thresholds and persists them along with the derived references. When a
// price API is down and a cached row exists the cache wins; on a cold cache
// the fallback constants seed the dashboard instead.
func (s *ZakahService) RefreshNisab(ctx context.Context) error {
	var fetchErr error
	rate, err := s.fetchUSDNGN(ctx)
	if err != nil {
		fetchErr = fmt.Errorf("fetching fx rate: %w", err)
		rate = fallbackUSDNGN
	}
	gold, err := s.fetchMetalPrice(ctx, "XAU")
	if err != nil {
		fetchErr = fmt.Errorf("fetching gold price: %w", err)
		gold = fallbackGoldUSD
	}
	silver, err := s.fetchMetalPrice(ctx, "XAG")
	if err != nil {
		fetchErr = fmt.Errorf("fetching silver price: %w", err)
		silver = fallbackSilverUSD
	}

	if fetchErr != nil {
		cached, err := s.repo.GetNisab()
		if err != nil {
			return fetchErr
		}
		if cached != nil {
			return fetchErr
		}
		s.log.Warn().Err(fetchErr).Msg("price fetch failed on empty cache, seeding from fallback constants")
	}

	goldNGN, silverNGN := ComputeNisab(gold, silver, rate)
	n := &models.ZakahNisab{
		GoldPriceUSD:   gold,
		SilverPriceUSD: silver,
		USDNGNRate:     rate,
		NisabGoldNGN:   goldNGN,
		NisabSilverNGN: silverNGN,
	}
	if err := s.repo.SaveNisab(n); err != nil {
		return fmt.Errorf("saving nisab: %w", err)
	}
	for _, ref := range DeriveReferences(goldNGN) {
		if err := s.repo.UpsertReference(&ref); err != nil {
			return fmt.Errorf("saving reference %s: %w", ref.Key, err)
		}
	}

	s.log.Info().Str("nisab_gold_ngn", goldNGN.String()).Str("nisab_silver_ngn", silverNGN.String()).
		Str("usd_ngn", rate.String()).Msg("nisab refreshed")
	return nil
}

func (s *ZakahService) fetchUSDNGN(ctx context.Context) (decimal.Decimal, error) {
	var body struct {
		Rates map[string]json.Number `json:"rates"`
	}
	if err := s.getJSON(ctx, s.rateAPIURL, &body); err != nil {
		return decimal.Zero, err
	}
	ngn, ok := body.Rates["NGN"]
	if !ok {
		return decimal.Zero, fmt.Errorf("NGN missing from rate response")
	}
	return decimal.NewFromString(ngn.String())
}

func (s *ZakahService) fetchMetalPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var body struct {
		Price json.Number `json:"price"`
	}
	if err := s.getJSON(ctx, s.metalAPIURL+"/"+symbol, &body); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(body.Price.String())
}

func (s *ZakahService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Dashboard bundles everything the zakah screen shows.
type ZakahDashboard struct {
	Nisab      *models.ZakahNisab      `json:"nisab"`
	References []models.ZakahReference `json:"references"`
	Cards      []models.IslamicCard    `json:"islamic_cards"`
}

func (s *ZakahService) Dashboard() (*ZakahDashboard, error) {
	nisab, err := s.repo.GetNisab()
	if err != nil {
		return nil, err
	}
	refs, err := s.repo.ListReferences()
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.ListIslamicCards()
	if err != nil {
		return nil, err
	}
	return &ZakahDashboard{Nisab: nisab, References: refs, Cards: cards}, nil
}
