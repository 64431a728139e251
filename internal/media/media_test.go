package media

import (
	"bytes"
	"strings"
	"testing"
)

func TestQRRoundTrip(t *testing.T) {
	const payload = "https://nb-ra.example/metodist"

	png, err := GenerateQR(payload)
	if err != nil {
		t.Fatalf("GenerateQR: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty image")
	}

	decoded, err := DecodeQR(png)
	if err != nil {
		t.Fatalf("DecodeQR: %v", err)
	}
	if decoded != payload {
		t.Errorf("decoded = %q, want %q", decoded, payload)
	}
}

func TestGenerateQR_CyrillicPayload(t *testing.T) {
	png, err := GenerateQR("Национальная библиотека РА")
	if err != nil {
		t.Fatalf("GenerateQR: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty image")
	}
}

func TestExportRecognizedDocument(t *testing.T) {
	name, data := ExportRecognizedDocument("Вот текст документа:\nПоложение о фондах.\nПункт первый.", "Распознанный документ")

	if !strings.HasSuffix(name, ".md") {
		t.Errorf("name = %q, want a markdown file", name)
	}
	if !bytes.Contains(data, []byte("# Распознанный документ")) {
		t.Error("export must start with the title heading")
	}
	if bytes.Contains(data, []byte("Вот текст документа")) {
		t.Error("model intro phrase must be stripped")
	}
	if !bytes.Contains(data, []byte("Положение о фондах.")) {
		t.Error("document body must survive")
	}
}
