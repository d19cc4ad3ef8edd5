// =============================================================================
// Receipt-to-SQL Converter - Field Extractor
// =============================================================================
//
// This module turns the text of one receipt into a types.Ticket. Each line is
// claimed by the first marker whose trigger text it contains; the marker's
// pattern then captures the field. Extraction is best-effort: a line whose
// pattern does not match simply contributes nothing.
//
// MARKERS (in priority order):
//   Cajero:            -> employee code and name
//   Ticket:            -> ticket number
//   Fecha:             -> date (and Hora: on the same line)
//   CANT  DESCRIPCIÓN  -> item block header, starts the item sub-scan
//   SUBTOTAL           -> subtotal
//   IVA                -> tax
//   TOTAL A PAGAR      -> total
//   FORMA DE PAGO:     -> payment method
//
// ITEM BLOCK:
//   The block starts two lines below the header (the first line is the
//   header underline) and ends at a blank line, a line starting with "---",
//   or the end of the document. Lines of the block that parse as items are
//   never read as markers; any other line is matched like the rest of the
//   receipt, so totals directly below the items are still captured. Item
//   lines look like:
//
//     2 Leche 1L 2.40€
//     0.350 Jamón serrano 6.30 €
//
// =============================================================================

package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/ginjaninja78/receipts-to-sql/internal/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PATTERNS
// =============================================================================

// ItemHeader is the trigger text of the item block header.
const ItemHeader = "CANT  DESCRIPCIÓN"

// UnitPricePlaces is the number of decimal places of derived unit prices.
const UnitPricePlaces = 2

var (
	reCashier  = regexp.MustCompile(`Cajero:\s*(\d+)\s*-\s*(.+)`)
	reTicket   = regexp.MustCompile(`Ticket:\s*(\d+)`)
	reDate     = regexp.MustCompile(`Fecha:\s*(\d{2}/\d{2}/\d{4})`)
	reTime     = regexp.MustCompile(`Hora:\s*(\d{2}:\d{2})`)
	reItem     = regexp.MustCompile(`^(\d+\.?\d*)\s+(.+?)\s+(\d+\.\d{2})\s*€`)
	reSubtotal = regexp.MustCompile(`SUBTOTAL\s+(\d+\.\d{2})\s*€`)
	reTax      = regexp.MustCompile(`IVA.*?(\d+\.\d{2})\s*€`)
	reTotal    = regexp.MustCompile(`TOTAL A PAGAR\s+(\d+\.\d{2})\s*€`)
	rePayment  = regexp.MustCompile(`FORMA DE PAGO:\s*(.+)`)
)

const (
	receiptDateTimeLayout = "02/01/2006 15:04"
	sqlDateLayout         = "2006-01-02"
	sqlTimeLayout         = "15:04"
)

// marker claims a line by trigger text and applies its capture to the ticket.
// apply reports whether the capture succeeded.
type marker struct {
	name    string
	trigger string
	apply   func(t *types.Ticket, line string) bool
}

// itemMarker is a sentinel; the item block needs the surrounding lines and
// is handled by the scan loop itself.
var itemMarker = &marker{name: "items", trigger: ItemHeader}

var markers = []*marker{
	{name: "cashier", trigger: "Cajero:", apply: applyCashier},
	{name: "ticket", trigger: "Ticket:", apply: applyTicket},
	{name: "datetime", trigger: "Fecha:", apply: applyDateTime},
	itemMarker,
	{name: "subtotal", trigger: "SUBTOTAL", apply: amountInto(reSubtotal, func(t *types.Ticket, d decimal.Decimal) {
		t.Subtotal, t.HasSubtotal = d, true
	})},
	{name: "tax", trigger: "IVA", apply: amountInto(reTax, func(t *types.Ticket, d decimal.Decimal) {
		t.Tax, t.HasTax = d, true
	})},
	{name: "total", trigger: "TOTAL A PAGAR", apply: amountInto(reTotal, func(t *types.Ticket, d decimal.Decimal) {
		t.Total, t.HasTotal = d, true
	})},
	{name: "payment", trigger: "FORMA DE PAGO:", apply: applyPayment},
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor extracts ticket records from receipt text.
type Extractor struct {
	log zerolog.Logger
}

// New creates an Extractor that reports skipped lines at trace level.
func New(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract builds the ticket record for one receipt document. It never fails;
// fields whose markers are missing or malformed are left unset.
func (e *Extractor) Extract(source, text string) *types.Ticket {
	ticket := &types.Ticket{Source: source}
	lines := splitLines(text)

	// Lines in [itemsFrom, itemsTo) belong to the current item block.
	itemsFrom, itemsTo := 0, 0

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if i >= itemsFrom && i < itemsTo {
			if item, ok := ParseItemLine(line); ok {
				ticket.Lines = append(ticket.Lines, item)
				continue
			}
			e.log.Trace().
				Str("receipt", source).
				Int("line", i+1).
				Msg("not an item line")
		}

		m := matchMarker(line)
		if m == nil {
			continue
		}

		if m == itemMarker {
			ticket.Lines = []types.TicketLine{}
			itemsFrom, itemsTo = i+2, itemBlockEnd(lines, i+2)
			continue
		}

		if !m.apply(ticket, line) {
			e.log.Trace().
				Str("receipt", source).
				Int("line", i+1).
				Str("marker", m.name).
				Msg("marker found but value not captured")
		}
	}

	return ticket
}

// itemBlockEnd returns the index of the first line at or after start that
// closes an item block: a blank line, a line starting with "---", or the end
// of the document.
func itemBlockEnd(lines []string, start int) int {
	j := start
	for ; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" || strings.HasPrefix(lines[j], "---") {
			break
		}
	}
	return j
}

// =============================================================================
// LINE PARSERS
// =============================================================================

// ParseItemLine parses "<quantity> <description> <amount>€".
// Lines with a zero quantity are rejected since no unit price can be derived.
func ParseItemLine(line string) (types.TicketLine, bool) {
	match := reItem.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return types.TicketLine{}, false
	}

	quantity, err := decimal.NewFromString(strings.TrimSuffix(match[1], "."))
	if err != nil || quantity.IsZero() {
		return types.TicketLine{}, false
	}

	amount, err := decimal.NewFromString(match[3])
	if err != nil {
		return types.TicketLine{}, false
	}

	return types.TicketLine{
		Description: strings.TrimSpace(match[2]),
		Quantity:    quantity,
		Amount:      amount,
		UnitPrice:   UnitPrice(amount, quantity),
	}, true
}

// UnitPrice returns amount / quantity rounded to two places, halves away
// from zero.
func UnitPrice(amount, quantity decimal.Decimal) decimal.Decimal {
	return amount.DivRound(quantity, UnitPricePlaces)
}

func applyCashier(t *types.Ticket, line string) bool {
	match := reCashier.FindStringSubmatch(line)
	if match == nil {
		return false
	}
	t.EmployeeCode = match[1]
	t.EmployeeName = strings.TrimSpace(match[2])
	return true
}

func applyTicket(t *types.Ticket, line string) bool {
	match := reTicket.FindStringSubmatch(line)
	if match == nil {
		return false
	}
	t.Number = match[1]
	return true
}

// applyDateTime normalizes DD/MM/YYYY HH:MM to YYYY-MM-DD and HH:MM. If the
// values do not form a real date and time they are kept as captured.
func applyDateTime(t *types.Ticket, line string) bool {
	dateMatch := reDate.FindStringSubmatch(line)
	timeMatch := reTime.FindStringSubmatch(line)

	switch {
	case dateMatch != nil && timeMatch != nil:
		parsed, err := time.Parse(receiptDateTimeLayout, dateMatch[1]+" "+timeMatch[1])
		if err != nil {
			t.Date, t.Time = dateMatch[1], timeMatch[1]
			return true
		}
		t.Date, t.Time = parsed.Format(sqlDateLayout), parsed.Format(sqlTimeLayout)
		return true
	case dateMatch != nil:
		t.Date = dateMatch[1]
		return true
	case timeMatch != nil:
		t.Time = timeMatch[1]
		return true
	}
	return false
}

func applyPayment(t *types.Ticket, line string) bool {
	match := rePayment.FindStringSubmatch(line)
	if match == nil {
		return false
	}
	method := strings.TrimSpace(match[1])
	if method == "" {
		return false
	}
	t.PaymentMethod = method
	return true
}

// amountInto builds an apply func that captures one decimal amount.
func amountInto(re *regexp.Regexp, set func(*types.Ticket, decimal.Decimal)) func(*types.Ticket, string) bool {
	return func(t *types.Ticket, line string) bool {
		match := re.FindStringSubmatch(line)
		if match == nil {
			return false
		}
		d, err := decimal.NewFromString(match[1])
		if err != nil {
			return false
		}
		set(t, d)
		return true
	}
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func matchMarker(line string) *marker {
	for _, m := range markers {
		if strings.Contains(line, m.trigger) {
			return m
		}
	}
	return nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
