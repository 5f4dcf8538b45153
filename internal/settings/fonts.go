package settings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

// InitFamilies are loaded once at startup before any font settings apply.
var InitFamilies = []string{"Inter", "Space Grotesk", "JetBrains Mono"}

// FontLoader makes a font family available or fails.
type FontLoader interface {
	Load(ctx context.Context, family string) error
}

// GoogleFonts resolves families against the Google Fonts css2 endpoint and
// remembers the ones that resolved.
type GoogleFonts struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	loaded map[string]bool
}

func NewGoogleFonts(cfg config.FontsConfig) *GoogleFonts {
	return &GoogleFonts{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		loaded:  make(map[string]bool),
	}
}

// StylesheetURL is the css2 request for family in weights 300 to 700.
func (g *GoogleFonts) StylesheetURL(family string) string {
	// css2 wants the weight axis with literal ':' and ';'.
	return g.baseURL + "?family=" + url.QueryEscape(family) + ":wght@300;400;500;600;700&display=swap"
}

func (g *GoogleFonts) Load(ctx context.Context, family string) error {
	if g.Loaded(family) {
		return nil
	}
	if strings.TrimSpace(family) == "" {
		return fmt.Errorf("load font: empty family")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.StylesheetURL(family), nil)
	if err != nil {
		return fmt.Errorf("load font %q: %w", family, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("load font %q: %w", family, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("load font %q: status %d", family, resp.StatusCode)
	}

	g.mu.Lock()
	g.loaded[family] = true
	g.mu.Unlock()
	return nil
}

func (g *GoogleFonts) Loaded(family string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded[family]
}

// LoadFonts loads families concurrently and returns once every load has
// settled. Failures are logged and dropped.
func LoadFonts(ctx context.Context, loader FontLoader, families []string, log *logger.Logger) {
	var wg sync.WaitGroup
	for _, family := range families {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loader.Load(ctx, family); err != nil {
				log.WithFields("font", family).WithError(err).Warn("font load failed")
			}
		}()
	}
	wg.Wait()
}

// FontVars is what a renderer needs to apply FontSettings.
type FontVars struct {
	Heading string
	Body    string
	Mono    string
	Scale   float64
	Weight  int
}

var (
	fontScales  = map[string]float64{"small": 0.875, "medium": 1, "large": 1.125}
	fontWeights = map[string]int{"light": 300, "regular": 400, "medium": 500, "bold": 600}
)

func Vars(f store.FontSettings) FontVars {
	scale, ok := fontScales[f.Scale]
	if !ok {
		scale = 1
	}
	weight, ok := fontWeights[f.Weight]
	if !ok {
		weight = 400
	}
	return FontVars{Heading: f.HeadingFont, Body: f.BodyFont, Mono: f.MonoFont, Scale: scale, Weight: weight}
}

// NopFonts loads nothing and never fails.
type NopFonts struct{}

func (NopFonts) Load(context.Context, string) error { return nil }
