package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alapierre/go-fattura/fattura/layout"
	"github.com/alapierre/go-fattura/fattura/store"
)

const inboxSample = `<?xml version="1.0" encoding="UTF-8"?>
<p:FatturaElettronica xmlns:p="urn:x">
  <FatturaElettronicaHeader>
    <CedentePrestatore>
      <DatiAnagrafici>
        <IdFiscaleIVA><IdCodice>01234567890</IdCodice></IdFiscaleIVA>
        <Anagrafica><Denominazione>Acme Srl</Denominazione></Anagrafica>
      </DatiAnagrafici>
      <Sede><Indirizzo>Via Roma</Indirizzo><CAP>00100</CAP><Comune>Roma</Comune><Provincia>RM</Provincia></Sede>
    </CedentePrestatore>
    <CessionarioCommittente>
      <DatiAnagrafici>
        <IdFiscaleIVA><IdCodice>09876543210</IdCodice></IdFiscaleIVA>
        <Anagrafica><Denominazione>Beta Spa</Denominazione></Anagrafica>
      </DatiAnagrafici>
      <Sede><Indirizzo>Corso Milano</Indirizzo><CAP>20100</CAP><Comune>Milano</Comune><Provincia>MI</Provincia></Sede>
    </CessionarioCommittente>
  </FatturaElettronicaHeader>
  <FatturaElettronicaBody>
    <DatiGenerali>
      <DatiGeneraliDocumento>
        <TipoDocumento>TD01</TipoDocumento>
        <Divisa>EUR</Divisa>
        <Data>2024-03-15</Data>
        <Numero>42</Numero>
        <ImportoTotaleDocumento>100.00</ImportoTotaleDocumento>
      </DatiGeneraliDocumento>
    </DatiGenerali>
    <DatiBeniServizi>
      <DettaglioLinee>
        <Descrizione>Consulting</Descrizione>
        <Quantita>1</Quantita>
        <PrezzoUnitario>100.00</PrezzoUnitario>
        <PrezzoTotale>100.00</PrezzoTotale>
      </DettaglioLinee>
    </DatiBeniServizi>
  </FatturaElettronicaBody>
</p:FatturaElettronica>`

func TestProcess_EndToEnd(t *testing.T) {
	inbox := t.TempDir()
	outDir := t.TempDir()

	st, err := store.Open(filepath.Join(t.TempDir(), "invoices.db"))
	if err != nil {
		t.Fatalf("can't open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	xmlPath := filepath.Join(inbox, "fattura.xml")
	if err := os.WriteFile(xmlPath, []byte(inboxSample), 0o644); err != nil {
		t.Fatalf("can't write sample: %v", err)
	}

	w := New(Config{InboxDir: inbox, OutputDir: outDir}, st, layout.NewRenderer())

	id, err := w.Process(xmlPath)
	if err != nil {
		t.Fatalf("processing failed: %v", err)
	}
	assert.Positive(t, id)

	inv, err := st.ByID(id)
	if err != nil {
		t.Fatalf("invoice should be stored: %v", err)
	}
	assert.Equal(t, "42", inv.Number)
	assert.Equal(t, "€ 100,00", inv.Total)
	if assert.Len(t, inv.Lines, 1) {
		assert.Equal(t, "Consulting", inv.Lines[0].Description)
	}

	pdf, err := os.ReadFile(filepath.Join(outDir, "fattura-1.pdf"))
	if err != nil {
		t.Fatalf("document should be written: %v", err)
	}
	assert.True(t, len(pdf) > 0)

	_, err = os.Stat(xmlPath)
	assert.True(t, os.IsNotExist(err), "processed XML file is removed")
}

func TestProcess_InvalidDocument(t *testing.T) {
	inbox := t.TempDir()

	st, err := store.Open(filepath.Join(t.TempDir(), "invoices.db"))
	if err != nil {
		t.Fatalf("can't open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	xmlPath := filepath.Join(inbox, "broken.xml")
	if err := os.WriteFile(xmlPath, []byte(`<NotAnInvoice/>`), 0o644); err != nil {
		t.Fatalf("can't write sample: %v", err)
	}

	w := New(Config{InboxDir: inbox, OutputDir: t.TempDir()}, st, layout.NewRenderer())

	_, err = w.Process(xmlPath)
	assert.Error(t, err)

	_, err = os.Stat(xmlPath)
	assert.NoError(t, err, "failed files stay in the inbox")

	all, err := st.All()
	if err != nil {
		t.Fatalf("can't list invoices: %v", err)
	}
	assert.Empty(t, all, "nothing is stored for a rejected document")
}
