package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWrapCarriesTopic(t *testing.T) {
	tests := []Event{
		Initialized{Admin: "addr-a"},
		InvoicePaid{InvoiceID: 7, Payer: "addr-p", Amount: 1000, Fee: 50, MerchantAmount: 950},
		AccountRestricted{Account: "esc:1", Status: true},
		FeeSet{Token: "tok", FeeBPS: 250},
	}

	for _, e := range tests {
		env := Wrap(e)
		if env.Topic != e.Topic() {
			t.Errorf("Wrap(%T).Topic = %q, want %q", e, env.Topic, e.Topic())
		}
	}
}

func TestEnvelopeJSON(t *testing.T) {
	paid := InvoicePaid{
		InvoiceID:      1,
		Payer:          "addr-p",
		Amount:         1000,
		Fee:            50,
		MerchantAmount: 950,
		Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(Wrap(paid))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var env struct {
		Topic   string          `json:"topic"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Topic != TopicInvoicePaid {
		t.Errorf("topic = %q, want %q", env.Topic, TopicInvoicePaid)
	}

	var got InvoicePaid
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != paid {
		t.Errorf("payload roundtrip = %+v, want %+v", got, paid)
	}
}
