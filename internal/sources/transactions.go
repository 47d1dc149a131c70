package sources

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"littleluxuries/internal/dataset"
	apperrors "littleluxuries/internal/errors"
)

// Transaction is one retail purchase
type Transaction struct {
	Date         time.Time
	CustomerID   string
	Category     string
	Item         string
	Quantity     float64
	PricePerUnit float64
	TotalSpent   float64
	Payment      string
	Location     string
}

const (
	colDate     = "Transaction Date"
	colCategory = "Category"
	colTotal    = "Total Spent"
	colCustomer = "Customer ID"
)

var requiredTransactionColumns = []string{colDate, colCategory, colTotal, colCustomer}

// LoadTransactions reads a transaction log. A missing file returns an error
// matching ErrSourceNotFound.
func LoadTransactions(path string) ([]Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, notFound("retail transactions", path, err)
	}
	defer file.Close()

	txns, err := ReadTransactions(file)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid retail transactions", err).WithContext("path", path)
	}
	return txns, nil
}

// ReadTransactions parses transactions from CSV. Unknown columns are
// ignored; Item, Quantity, Price Per Unit, Payment Method and Location are
// optional.
func ReadTransactions(r io.Reader) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[h] = i
	}
	for _, name := range requiredTransactionColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var txns []Transaction
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := dataset.ParseDate(cell(row, colDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		total, err := dataset.ParseNumber(cell(row, colTotal))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad %s: %w", line, colTotal, err)
		}
		qty, _ := dataset.ParseNumber(cell(row, "Quantity"))
		price, _ := dataset.ParseNumber(cell(row, "Price Per Unit"))

		txns = append(txns, Transaction{
			Date:         date,
			CustomerID:   cell(row, colCustomer),
			Category:     cell(row, colCategory),
			Item:         cell(row, "Item"),
			Quantity:     qty,
			PricePerUnit: price,
			TotalSpent:   total,
			Payment:      cell(row, "Payment Method"),
			Location:     cell(row, "Location"),
		})
	}
	return txns, nil
}
