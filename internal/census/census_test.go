package census

import (
	"strings"
	"testing"
)

const sampleCSV = `GEO_LEVEL,CHARACTERISTIC_NAME,DGUID,ALT_GEO_CODE,GEO_NAME,C1_COUNT_TOTAL
Province,"Population, 2021",2021A000246,46,Manitoba,1342153
Census subdivision,"Population, 2021",X1,4622026,Thompson,13678
Census subdivision,Indigenous identity,X1,4622026,Thompson,6180
Census subdivision,Total population in private households by Indigenous identity,X1,4622026,Thompson,13280
Census subdivision,"Population, 2021",X2,4621064,City of Flin Flon,4940
Census subdivision,Indigenous identity,X2,4621064,City of Flin Flon,1275
Census subdivision,Total population in private households by Indigenous identity,X2,4621064,City of Flin Flon,0
Census subdivision,"Population, 2021",X3,4622050,Cross Lake 19A,
`

func TestLoadReader(t *testing.T) {
	ref, summary, err := LoadReader(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	if summary.Subdivisions != 3 {
		t.Fatalf("expected 3 subdivisions (province row excluded), got %d", summary.Subdivisions)
	}

	thompson, ok := ref.Lookup("X1")
	if !ok {
		t.Fatal("expected Thompson under geo id X1")
	}
	if thompson.NormalizedName != "thompson" {
		t.Errorf("normalized name = %q, expected thompson", thompson.NormalizedName)
	}
	if thompson.Population == nil || *thompson.Population != 13678 {
		t.Errorf("unexpected Thompson population: %v", thompson.Population)
	}
	if thompson.IndigenousShare == nil {
		t.Fatal("Thompson indigenous share should be defined")
	}
	if got := *thompson.IndigenousShare; got < 0.46 || got > 0.47 {
		t.Errorf("indigenous share = %f, expected ~0.465", got)
	}
}

func TestLoadReaderShareUndefined(t *testing.T) {
	ref, _, err := LoadReader(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	// Zero denominator.
	flinflon, _ := ref.Lookup("X2")
	if flinflon.IndigenousShare != nil {
		t.Errorf("share with zero denominator should be nil, got %v", *flinflon.IndigenousShare)
	}
	if flinflon.NormalizedName != "flin flon" {
		t.Errorf("prefix should be stripped from normalized name, got %q", flinflon.NormalizedName)
	}

	// Suppressed counts.
	crosslake, _ := ref.Lookup("X3")
	if crosslake.Population != nil {
		t.Errorf("suppressed population should be nil, got %v", *crosslake.Population)
	}
	if crosslake.IndigenousShare != nil {
		t.Error("share without counts should be nil")
	}
}

func TestLoadReaderSchemaDrift(t *testing.T) {
	missing := `GEO_LEVEL,CHARACTERISTIC_NAME,DGUID,GEO_NAME
Census subdivision,"Population, 2021",X1,Thompson
`
	_, _, err := LoadReader(strings.NewReader(missing))
	if err == nil {
		t.Fatal("expected hard error for missing C1_COUNT_TOTAL column")
	}
	if !strings.Contains(err.Error(), "C1_COUNT_TOTAL") {
		t.Errorf("error should name the missing column, got: %v", err)
	}
}

func TestFirstByNormalizedNameCollision(t *testing.T) {
	collision := `GEO_LEVEL,CHARACTERISTIC_NAME,DGUID,ALT_GEO_CODE,GEO_NAME,C1_COUNT_TOTAL
Census subdivision,"Population, 2021",A1,1,Grand Rapids,268
Census subdivision,"Population, 2021",A2,2,Town of Grand Rapids,300
`
	ref, _, err := LoadReader(strings.NewReader(collision))
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	g, ok := ref.FirstByNormalizedName("grand rapids")
	if !ok {
		t.Fatal("expected a match for grand rapids")
	}
	if g.GeoID != "A1" {
		t.Errorf("collision should resolve to first occurrence A1, got %s", g.GeoID)
	}
}

func TestLoadEmptySourceUsesFallback(t *testing.T) {
	ref, summary, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") should use the embedded fallback, got error: %v", err)
	}
	if !summary.UsedFallback {
		t.Error("summary should record the fallback")
	}
	if summary.Source != "embedded fallback" {
		t.Errorf("summary source = %q, expected embedded fallback", summary.Source)
	}
	if _, ok := ref.FirstByNormalizedName("thompson"); !ok {
		t.Error("fallback reference should include Thompson")
	}
}

func TestLoadReaderRowOrderIndependent(t *testing.T) {
	// Characteristic rows before the population row that defines the
	// geography must still be joined in.
	reordered := `GEO_LEVEL,CHARACTERISTIC_NAME,DGUID,ALT_GEO_CODE,GEO_NAME,C1_COUNT_TOTAL
Census subdivision,Indigenous identity,X1,4622026,Thompson,6180
Census subdivision,Total population in private households by Indigenous identity,X1,4622026,Thompson,13280
Census subdivision,"Population, 2021",X1,4622026,Thompson,13678
`
	ref, _, err := LoadReader(strings.NewReader(reordered))
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	thompson, ok := ref.Lookup("X1")
	if !ok {
		t.Fatal("expected Thompson under geo id X1")
	}
	if thompson.IndigenousPopulation == nil || *thompson.IndigenousPopulation != 6180 {
		t.Errorf("indigenous count should survive reordering, got %v", thompson.IndigenousPopulation)
	}
	if thompson.IndigenousShare == nil {
		t.Error("share should be defined after reordering")
	}
}

func TestEmbeddedFallback(t *testing.T) {
	ref, summary, err := LoadReader(strings.NewReader(string(fallbackCSV)))
	if err != nil {
		t.Fatalf("embedded fallback should parse: %v", err)
	}
	if summary.Subdivisions == 0 {
		t.Fatal("embedded fallback should contain subdivisions")
	}
	if _, ok := ref.FirstByNormalizedName("thompson"); !ok {
		t.Error("embedded fallback should include Thompson")
	}
}

func TestDesignatedPlacesFallback(t *testing.T) {
	ref := buildDesignatedReference(fallbackItems())

	if len(ref.Entries) == 0 {
		t.Fatal("embedded designated places should not be empty")
	}

	g, ok := ref.FirstByNormalizedName("cranberry portage")
	if !ok {
		t.Fatal("expected Cranberry Portage in designated places")
	}
	if !strings.HasPrefix(g.GeoID, "GNBC_POPULATED_PLACE_") {
		t.Errorf("unexpected synthetic geo id %q", g.GeoID)
	}
	if g.Population != nil {
		t.Error("designated places carry no population figures")
	}
}
