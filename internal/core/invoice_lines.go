package core

import (
	"github.com/shopspring/decimal"
)

// DescriptionPolicy chooses the text of generated invoice lines.
type DescriptionPolicy int

const (
	// DescribeProduct uses the product name only.
	DescribeProduct DescriptionPolicy = iota
	// DescribeProductWithAddress appends the order's property address: "<product> – <address>".
	DescribeProductWithAddress
)

// LineBuildOptions configures BuildInvoiceLines.
type LineBuildOptions struct {
	Description DescriptionPolicy
	// MergeByProduct collapses lines of the same product into one.
	MergeByProduct bool
}

// DraftInvoice is an invoice computed from orders but not yet stored.
type DraftInvoice struct {
	CustomerID int
	OrderIDs   []int
	Subtotal   decimal.Decimal
	VATAmount  decimal.Decimal
	Lines      []InvoiceLine
}

// Total returns subtotal plus VAT.
func (d *DraftInvoice) Total() decimal.Decimal {
	return d.Subtotal.Add(d.VATAmount)
}

func describe(line OrderLine, address string, policy DescriptionPolicy) string {
	if policy == DescribeProductWithAddress && address != "" {
		return line.ProductName + " – " + address
	}
	return line.ProductName
}

// BuildInvoiceLines turns order lines into invoice lines, numbering them from 1.
//
// With MergeByProduct, the first occurrence of a product fixes the line's position,
// description, unit price and VAT rate; later occurrences add their quantity and total.
// If a product was priced differently across orders, the merged TotalPrice is the sum of
// the order line totals and no longer equals UnitPrice × Quantity.
func BuildInvoiceLines(orders []Order, opts LineBuildOptions) []InvoiceLine {
	var lines []InvoiceLine
	index := make(map[int]int)

	for _, o := range orders {
		for _, ol := range o.Lines {
			if opts.MergeByProduct {
				if i, ok := index[ol.ProductID]; ok {
					lines[i].Quantity += ol.Quantity
					lines[i].TotalPrice = lines[i].TotalPrice.Add(ol.TotalPrice)
					continue
				}
				index[ol.ProductID] = len(lines)
			}
			productID := ol.ProductID
			lines = append(lines, InvoiceLine{
				LineNumber:  len(lines) + 1,
				ProductID:   &productID,
				Description: describe(ol, o.PropertyAddress, opts.Description),
				Quantity:    ol.Quantity,
				UnitPrice:   ol.UnitPrice,
				TotalPrice:  ol.TotalPrice,
				VATRate:     ol.VATRate,
			})
		}
	}
	return lines
}

// ConsolidateOrders builds a period invoice draft. Header amounts are the sums of the
// orders' stored snapshots; lines are merged per product and described with the first
// order's property address.
func ConsolidateOrders(orders []Order) (*DraftInvoice, error) {
	if len(orders) == 0 {
		return nil, ValidationErrorf(ErrNothingToInvoice, "nothing to invoice")
	}
	d := &DraftInvoice{CustomerID: orders[0].CustomerID}
	for _, o := range orders {
		if o.IsInvoiced() {
			return nil, ValidationErrorf(ErrInvoiceExists,
				"order %s is already invoiced", o.OrderNumber)
		}
		d.OrderIDs = append(d.OrderIDs, o.ID)
		d.Subtotal = d.Subtotal.Add(o.TotalAmount)
		d.VATAmount = d.VATAmount.Add(o.VATAmount)
	}
	d.Lines = BuildInvoiceLines(orders, LineBuildOptions{
		Description:    DescribeProductWithAddress,
		MergeByProduct: true,
	})
	return d, nil
}

// DraftFromOrder builds a single-order invoice draft: one line per order line,
// described by product name, totals copied from the order snapshot.
func DraftFromOrder(o *Order) (*DraftInvoice, error) {
	if o.IsInvoiced() {
		return nil, ValidationErrorf(ErrInvoiceExists,
			"invoice already exists for order %s", o.OrderNumber)
	}
	if len(o.Lines) == 0 {
		return nil, ValidationErrorf(ErrOrderHasNoProducts, "cannot invoice an order with no products")
	}
	return &DraftInvoice{
		CustomerID: o.CustomerID,
		OrderIDs:   []int{o.ID},
		Subtotal:   o.TotalAmount,
		VATAmount:  o.VATAmount,
		Lines:      BuildInvoiceLines([]Order{*o}, LineBuildOptions{Description: DescribeProduct}),
	}, nil
}
