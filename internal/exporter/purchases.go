package exporter

import (
	"littleluxuries/internal/config"
	"littleluxuries/internal/retail"
)

// ExportPurchases writes the categorised transactions
func (t *TableauExporter) ExportPurchases(filePath string, purchases []retail.Purchase) error {
	headers := []string{
		"Transaction Date", "Customer ID", "Category", "Item", "Quantity", "Price Per Unit",
		"Total Spent", "Payment Method", "Location", "purchase_type", "luxury_category",
	}
	records := make([][]string, 0, len(purchases))
	for _, p := range purchases {
		records = append(records, []string{
			formatDate(p.Date),
			p.CustomerID,
			p.Category,
			p.Item,
			formatFloat(p.Quantity),
			formatMoney(p.PricePerUnit),
			formatMoney(p.TotalSpent),
			p.Payment,
			p.Location,
			p.Type,
			p.LuxuryCategory,
		})
	}
	return t.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

// ExportPurchaseSummary writes the monthly spending per purchase type
func (t *TableauExporter) ExportPurchaseSummary(summary []retail.MonthlyRow) error {
	headers := []string{
		"year_month", "purchase_type", "total_spending", "transaction_count", "avg_transaction",
		"unique_customers", "total_monthly_spending", "spending_share", "Data_Type",
	}
	records := make([][]string, 0, len(summary))
	for _, r := range summary {
		records = append(records, []string{
			formatDate(r.Month),
			r.Type,
			formatMoney(r.TotalSpending),
			formatInt(r.TransactionCount),
			formatFloat(r.AvgTransaction),
			formatInt(r.UniqueCustomers),
			formatMoney(r.TotalMonthlySpending),
			formatFloat(r.SpendingShare),
			DataTypePurchase,
		})
	}
	return t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauPurchaseSummaryFile), headers, records)
}

// ExportPriceAnalysis writes the little-luxury price ranges
func (t *TableauExporter) ExportPriceAnalysis(bins []retail.PriceBin) error {
	headers := []string{
		"price_range", "transaction_count", "total_spent", "avg_transaction", "unique_customers", "Data_Type",
	}
	records := make([][]string, 0, len(bins))
	for _, b := range bins {
		records = append(records, []string{
			b.Label,
			formatInt(b.TransactionCount),
			formatMoney(b.TotalSpent),
			formatFloat(b.AvgTransaction),
			formatInt(b.UniqueCustomers),
			DataTypePrice,
		})
	}
	return t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauPriceAnalysisFile), headers, records)
}

// ExportSearchVsPurchase writes the months that have purchase data. It
// writes nothing when no month overlaps.
func (t *TableauExporter) ExportSearchVsPurchase(cmp *retail.Comparison) (bool, error) {
	overlap := cmp.Overlapping()
	if overlap.Len() == 0 {
		return false, nil
	}
	return true, t.csvWriter.WriteFrame(tableauPath(config.TableauSearchVsPurchaseFile), overlap)
}

// ExportCategoryByPeriod writes spending per quarter and luxury category
func (t *TableauExporter) ExportCategoryByPeriod(rows []retail.PeriodCategory) error {
	headers := []string{
		"year", "quarter", "luxury_category", "total_spent", "avg_spent", "transaction_count", "unique_customers",
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatInt(r.Year),
			formatInt(r.Quarter),
			r.LuxuryCategory,
			formatMoney(r.TotalSpent),
			formatFloat(r.AvgSpent),
			formatInt(r.TransactionCount),
			formatInt(r.UniqueCustomers),
		})
	}
	return t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauCategoryPeriodFile), headers, records)
}
