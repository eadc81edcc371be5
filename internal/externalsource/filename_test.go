package externalsource

import "testing"

func TestValidateFileNameTemplateAcceptsSinglePlaceholder(t *testing.T) {
	if err := ValidateFileNameTemplate("temp_%%%TIME_STRING%%%.tif"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFileNameTemplateAcceptsNoPlaceholder(t *testing.T) {
	if err := ValidateFileNameTemplate("static.tif"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFileNameTemplateRejectsRepeatedPlaceholder(t *testing.T) {
	err := ValidateFileNameTemplate("%%%TIME_STRING%%%/%%%TIME_STRING%%%.tif")
	if err == nil {
		t.Fatal("expected error for repeated placeholder")
	}
}

func TestExpandFileNameTemplate(t *testing.T) {
	got := ExpandFileNameTemplate("temp_%%%TIME_STRING%%%.tif", "20200101120000")
	want := "temp_20200101120000.tif"
	if got != want {
		t.Fatalf("ExpandFileNameTemplate = %q, want %q", got, want)
	}
}

func TestExpandFileNameTemplateNoPlaceholder(t *testing.T) {
	got := ExpandFileNameTemplate("static.tif", "20200101120000")
	if got != "static.tif" {
		t.Fatalf("ExpandFileNameTemplate = %q, want unchanged", got)
	}
}
