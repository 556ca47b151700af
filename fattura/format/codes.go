package format

// ModalitaPagamento codes, FatturaPA v1.2.
var paymentMethods = map[string]string{
	"MP01": "Contanti",
	"MP02": "Assegno",
	"MP03": "Assegno circolare",
	"MP04": "Contanti presso Tesoreria",
	"MP05": "Bonifico",
	"MP06": "Vaglia cambiario",
	"MP07": "Bollettino bancario",
	"MP08": "Carta di pagamento",
	"MP09": "RID",
	"MP10": "RID utenze",
	"MP11": "RID veloce",
	"MP12": "RIBA",
	"MP13": "MAV",
	"MP14": "Quietanza erario",
	"MP15": "Giroconto su conti di contabilità speciale",
	"MP16": "Domiciliazione bancaria",
	"MP17": "Domiciliazione postale",
	"MP18": "Bollettino di c/c postale",
	"MP19": "SEPA Direct Debit",
	"MP20": "SEPA Direct Debit CORE",
	"MP21": "SEPA Direct Debit B2B",
	"MP22": "Trattenuta su somme già riscosse",
	"MP23": "PagoPA",
}

// TipoDocumento codes, FatturaPA v1.2.
var documentTypes = map[string]string{
	"TD01": "Fattura",
	"TD02": "Acconto/anticipo su fattura",
	"TD03": "Acconto/anticipo su parcella",
	"TD04": "Nota di credito",
	"TD05": "Nota di debito",
	"TD06": "Parcella",
	"TD16": "Integrazione fattura reverse charge interno",
	"TD17": "Integrazione/autofattura per acquisto servizi dall'estero",
	"TD18": "Integrazione per acquisto di beni intracomunitari",
	"TD19": "Integrazione/autofattura per acquisto di beni ex art.17 c.2",
	"TD20": "Autofattura per regolarizzazione",
	"TD21": "Autofattura per splafonamento",
	"TD22": "Estrazione beni da Deposito IVA",
	"TD23": "Estrazione beni da Deposito IVA con versamento dell'IVA",
	"TD24": "Fattura differita art.21 c.4 lett. a",
	"TD25": "Fattura differita art.21 c.4 terzo periodo lett. b",
	"TD26": "Cessione di beni ammortizzabili e passaggi interni",
	"TD27": "Fattura per autoconsumo o cessioni gratuite senza rivalsa",
	"TD28": "Acquisti da San Marino con IVA",
}
