package core

import (
	"context"
	"strings"
)

// Form categories derived from the coil width.
const (
	FormCoils     = "Coils"
	FormSlitCoils = "Slit Coils"
	FormOffcuts   = "Offcuts"
)

const (
	// DefaultFormWidthThreshold separates coils from slit coils, in millimeters.
	DefaultFormWidthThreshold = 600.0

	// DefaultMaterial is assigned to third-choice stock and offcuts without a grade.
	DefaultMaterial = "Carbon Steel"

	// ThirdChoice is the choice value that triggers the default material.
	ThirdChoice = "3rd"

	// FinishCategoryMarker in a category cell defers to the finish-based lookup.
	FinishCategoryMarker = "Finish"
)

// Run document keys copied into every row.
const (
	KeyWarehouseAddress = "template_data.warehouse_address"
	KeyChoice           = "template_data.choice"
	KeyAccess           = "template_data.access"
	KeyAuctionType      = "template_data.auction_type"
)

// MaterialEntry is one row of the grade -> material family table.
type MaterialEntry struct {
	GradeSuffix string `yaml:"grade_suffix"`
	Grade       string `yaml:"grade"`
	Suffix      string `yaml:"suffix"`
	Material    string `yaml:"material"`
}

// MaterialTable resolves grades to material families.
type MaterialTable struct {
	byGradeSuffix map[string]string
	byGrade       map[string]string
	bySuffix      map[string]string
}

// NewMaterialTable indexes entries; the first entry wins per key.
func NewMaterialTable(entries []MaterialEntry) *MaterialTable {
	m := &MaterialTable{
		byGradeSuffix: make(map[string]string),
		byGrade:       make(map[string]string),
		bySuffix:      make(map[string]string),
	}
	put := func(idx map[string]string, key, material string) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		if _, ok := idx[key]; !ok {
			idx[key] = material
		}
	}
	for _, e := range entries {
		put(m.byGradeSuffix, e.GradeSuffix, e.Material)
		put(m.byGrade, e.Grade, e.Material)
		put(m.bySuffix, e.Suffix, e.Material)
	}
	return m
}

// Lookup tries the full designation, then the grade root, then the suffix.
func (m *MaterialTable) Lookup(grade string) (string, bool) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return "", false
	}
	for _, idx := range []map[string]string{m.byGradeSuffix, m.byGrade, m.bySuffix} {
		if mat, ok := idx[grade]; ok {
			return mat, true
		}
	}
	return "", false
}

// CategoryMatrix maps (form, material) to a catalog category.
type CategoryMatrix struct {
	cells    map[string]map[string]string
	byFinish map[string]string
}

// NewCategoryMatrix builds the matrix from form -> material -> category cells
// and the finish -> category table used for FinishCategoryMarker cells.
func NewCategoryMatrix(cells map[string]map[string]string, byFinish map[string]string) *CategoryMatrix {
	return &CategoryMatrix{cells: cells, byFinish: byFinish}
}

// Lookup returns the category for a form/material pair. finish is the
// finish label; its first ';'-separated token keys the secondary lookup.
func (c *CategoryMatrix) Lookup(form, material, finish string) (string, bool) {
	cell, ok := c.cells[form][material]
	if !ok || cell == "" {
		return "", false
	}
	if cell != FinishCategoryMarker {
		return cell, true
	}
	token := strings.TrimSpace(strings.SplitN(finish, ";", 2)[0])
	cat, ok := c.byFinish[token]
	return cat, ok && cat != ""
}

// AugmentConfig holds everything the derived fields depend on. A nil map or
// absent template key means the value is not configured for this run.
type AugmentConfig struct {
	FormWidthThreshold float64
	Locations          map[string]string
	Template           map[string]string // choice, access, auction_type
	DefaultMaterial    string
	Materials          *MaterialTable
	Categories         *CategoryMatrix
	Translator         Translator
}

// Augmenter appends the fields downstream consumers need.
type Augmenter struct {
	cfg AugmentConfig
}

// NewAugmenter applies defaults to cfg.
func NewAugmenter(cfg AugmentConfig) *Augmenter {
	if cfg.FormWidthThreshold <= 0 {
		cfg.FormWidthThreshold = DefaultFormWidthThreshold
	}
	if cfg.DefaultMaterial == "" {
		cfg.DefaultMaterial = DefaultMaterial
	}
	return &Augmenter{cfg: cfg}
}

// Apply runs every derived-field step in order. Later steps read the output
// of earlier ones (material reads form and choice, category reads material).
func (a *Augmenter) Apply(ctx context.Context, t *Table) []Issue {
	var issues []Issue
	issues = append(issues, a.form(t)...)
	issues = append(issues, a.location(t)...)
	a.articleID(t)
	issues = append(issues, a.templateFields(t)...)
	issues = append(issues, a.material(t)...)
	issues = append(issues, a.category(t)...)
	a.translate(ctx, t)
	return issues
}

func (a *Augmenter) form(t *Table) []Issue {
	var issues []Issue
	t.AddColumn(ColForm)
	for _, r := range t.Rows {
		w, ok := r.Get(ColWidth).Number()
		if !ok {
			issues = append(issues, NewIssue(IssueDerivedField,
				"form not derived: width %s is not numeric", r.Get(ColWidth)).ForBundle(r.BundleID()).ForColumn(ColForm))
			continue
		}
		if w > a.cfg.FormWidthThreshold {
			r.Set(ColForm, Str(FormCoils))
		} else {
			r.Set(ColForm, Str(FormSlitCoils))
		}
	}
	return issues
}

func (a *Augmenter) location(t *Table) []Issue {
	if a.cfg.Locations == nil {
		return []Issue{IssueFromError(&ConfigurationError{Key: KeyWarehouseAddress}).ForColumn(ColLocation)}
	}
	var issues []Issue
	for _, r := range t.Rows {
		code := strings.TrimSpace(r.Get(ColLocation).Text())
		addr, ok := a.cfg.Locations[code]
		if !ok {
			issues = append(issues, NewIssue(IssueUnresolvedLocation,
				"location code %q has no address mapping", code).ForBundle(r.BundleID()).ForColumn(ColLocation))
			r.Set(ColLocation, Missing())
			continue
		}
		r.Set(ColLocation, Str(addr))
	}
	return issues
}

func (a *Augmenter) articleID(t *Table) {
	t.AddColumn(ColArticleID)
	for _, r := range t.Rows {
		r.Set(ColArticleID, r.Get(ColBundleID))
	}
}

func (a *Augmenter) templateFields(t *Table) []Issue {
	var issues []Issue
	fields := []struct{ col, key string }{
		{ColChoice, KeyChoice},
		{ColAccess, KeyAccess},
		{ColAuctionType, KeyAuctionType},
	}
	for _, f := range fields {
		v, ok := a.cfg.Template[f.col]
		if !ok {
			issues = append(issues, IssueFromError(&ConfigurationError{Key: f.key}).ForColumn(f.col))
			continue
		}
		t.SetColumn(f.col, Str(v))
	}
	return issues
}

func (a *Augmenter) material(t *Table) []Issue {
	var issues []Issue
	t.AddColumn(ColMaterial)
	for _, r := range t.Rows {
		grade := strings.TrimSpace(r.Get(ColGrade).Text())
		choice := r.Get(ColChoice).Text()
		form := r.Get(ColForm).Text()
		if (choice == ThirdChoice || form == FormOffcuts) && grade == "" {
			r.Set(ColMaterial, Str(a.cfg.DefaultMaterial))
			continue
		}
		if a.cfg.Materials == nil {
			continue
		}
		mat, ok := a.cfg.Materials.Lookup(grade)
		if !ok {
			issues = append(issues, NewIssue(IssueUnresolvedMaterial,
				"no material family for grade %q", grade).ForBundle(r.BundleID()).ForColumn(ColMaterial))
			continue
		}
		r.Set(ColMaterial, Str(mat))
	}
	if a.cfg.Materials == nil {
		issues = append(issues, NewIssue(IssueConfiguration, "material table not configured").ForColumn(ColMaterial))
	}
	return issues
}

func (a *Augmenter) category(t *Table) []Issue {
	t.AddColumn(ColCategory)
	if a.cfg.Categories == nil {
		return []Issue{NewIssue(IssueConfiguration, "category matrix not configured").ForColumn(ColCategory)}
	}
	var issues []Issue
	for _, r := range t.Rows {
		form := r.Get(ColForm).Text()
		material := r.Get(ColMaterial).Text()
		cat, ok := a.cfg.Categories.Lookup(form, material, r.Get(ColFinish).Text())
		if !ok {
			issues = append(issues, NewIssue(IssueUnresolvedCategory,
				"no category for form %q and material %q", form, material).ForBundle(r.BundleID()).ForColumn(ColCategory))
			continue
		}
		r.Set(ColCategory, Str(cat))
	}
	return issues
}

// translate fills description_en, calling the translator once per distinct text.
func (a *Augmenter) translate(ctx context.Context, t *Table) {
	if a.cfg.Translator == nil || !t.HasColumn(ColMaterialDescription) {
		return
	}
	t.AddColumn(ColDescriptionEN)
	cache := make(map[string]string)
	for _, r := range t.Rows {
		text := r.Get(ColMaterialDescription).Text()
		if text == "" {
			continue
		}
		tr, ok := cache[text]
		if !ok {
			tr = a.cfg.Translator.Translate(ctx, text)
			cache[text] = tr
		}
		r.Set(ColDescriptionEN, Str(tr))
	}
}
