package store

import (
	"github.com/go-faster/jx"

	"github.com/alapierre/go-fattura/fattura/model"
)

// The embedded sequences and optional groups are stored as JSON text.
// Optional groups encode to the empty string when absent so the column
// stays distinguishable from a present-but-empty group.

func encodeLines(lines []model.LineItem) string {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		field(&e, "lineNumber", l.LineNumber)
		field(&e, "articleCode", l.ArticleCode)
		field(&e, "description", l.Description)
		field(&e, "quantity", l.Quantity)
		field(&e, "unitOfMeasure", l.UnitOfMeasure)
		field(&e, "unitPrice", l.UnitPrice)
		field(&e, "discount", l.DiscountOrSurcharge)
		field(&e, "vatRate", l.VATRate)
		field(&e, "total", l.Total)
		e.ObjEnd()
	}
	e.ArrEnd()
	return string(e.Bytes())
}

func decodeLines(data string) ([]model.LineItem, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}

	var out []model.LineItem
	d := jx.DecodeStr(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var l model.LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			return decodeField(d, key, map[string]*string{
				"lineNumber":    &l.LineNumber,
				"articleCode":   &l.ArticleCode,
				"description":   &l.Description,
				"quantity":      &l.Quantity,
				"unitOfMeasure": &l.UnitOfMeasure,
				"unitPrice":     &l.UnitPrice,
				"discount":      &l.DiscountOrSurcharge,
				"vatRate":       &l.VATRate,
				"total":         &l.Total,
			})
		}); err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

func encodeInstallments(ins []model.PaymentInstallment) string {
	var e jx.Encoder
	e.ArrStart()
	for _, in := range ins {
		e.ObjStart()
		field(&e, "methodCode", in.MethodCode)
		field(&e, "methodDescription", in.MethodDescription)
		field(&e, "referenceDate", in.ReferenceDate)
		field(&e, "termDays", in.TermDays)
		field(&e, "dueDate", in.DueDate)
		field(&e, "amount", in.Amount)
		field(&e, "beneficiary", in.Beneficiary)
		field(&e, "iban", in.IBAN)
		field(&e, "bic", in.BIC)
		e.ObjEnd()
	}
	e.ArrEnd()
	return string(e.Bytes())
}

func decodeInstallments(data string) ([]model.PaymentInstallment, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}

	var out []model.PaymentInstallment
	d := jx.DecodeStr(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var in model.PaymentInstallment
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			return decodeField(d, key, map[string]*string{
				"methodCode":        &in.MethodCode,
				"methodDescription": &in.MethodDescription,
				"referenceDate":     &in.ReferenceDate,
				"termDays":          &in.TermDays,
				"dueDate":           &in.DueDate,
				"amount":            &in.Amount,
				"beneficiary":       &in.Beneficiary,
				"iban":              &in.IBAN,
				"bic":               &in.BIC,
			})
		}); err != nil {
			return err
		}
		out = append(out, in)
		return nil
	})
	return out, err
}

func encodeRegistration(r *model.BusinessRegistration) string {
	if r == nil {
		return ""
	}
	var e jx.Encoder
	e.ObjStart()
	field(&e, "office", r.Office)
	field(&e, "number", r.Number)
	field(&e, "shareCapital", r.ShareCapital)
	field(&e, "soleShareholder", r.SoleShareholder)
	field(&e, "liquidationStatus", r.LiquidationStatus)
	e.ObjEnd()
	return string(e.Bytes())
}

func decodeRegistration(data string) (*model.BusinessRegistration, error) {
	if data == "" {
		return nil, nil
	}

	var r model.BusinessRegistration
	d := jx.DecodeStr(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		return decodeField(d, key, map[string]*string{
			"office":            &r.Office,
			"number":            &r.Number,
			"shareCapital":      &r.ShareCapital,
			"soleShareholder":   &r.SoleShareholder,
			"liquidationStatus": &r.LiquidationStatus,
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func encodeIntermediary(i *model.Intermediary) string {
	if i == nil {
		return ""
	}
	var e jx.Encoder
	e.ObjStart()
	field(&e, "name", i.Name)
	field(&e, "taxId", i.TaxID)
	field(&e, "fiscalCode", i.FiscalCode)
	e.ObjEnd()
	return string(e.Bytes())
}

func decodeIntermediary(data string) (*model.Intermediary, error) {
	if data == "" {
		return nil, nil
	}

	var i model.Intermediary
	d := jx.DecodeStr(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		return decodeField(d, key, map[string]*string{
			"name":       &i.Name,
			"taxId":      &i.TaxID,
			"fiscalCode": &i.FiscalCode,
		})
	})
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func field(e *jx.Encoder, key, value string) {
	e.FieldStart(key)
	e.Str(value)
}

func decodeField(d *jx.Decoder, key string, dst map[string]*string) error {
	p, ok := dst[key]
	if !ok {
		return d.Skip()
	}
	v, err := d.Str()
	if err != nil {
		return err
	}
	*p = v
	return nil
}
