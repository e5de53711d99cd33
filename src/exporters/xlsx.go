package exporters

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/shopspring/decimal"
)

const (
	sheetSecurities = "PIT-38 - Akcje i Koszty"
	sheetDividends  = "PIT-38 - Dywidendy"
	sheetPITZG      = "PIT-ZG"
)

func cell(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func yesNo(v bool) string {
	if v {
		return "TAK"
	}
	return "NIE"
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %q: %w", sheet, err)
	}
	for i := range rows {
		if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(i+1), &rows[i]); err != nil {
			return fmt.Errorf("writing row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

// WriteXLSX renders the tax forms as a workbook with one sheet per form
// section, in the layout the paper forms use.
func WriteXLSX(forms TaxForms, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	securities := [][]interface{}{
		{"KOMÓRKA", "NAZWA", "WARTOŚĆ"},
		{"C.22", "Inne przychody / Przychód", cell(forms.PIT38.TotalIncome)},
		{"C.23", "Inne przychody / Koszty uzyskania przychodów", cell(forms.PIT38.TotalCost)},
		{"C.24", "Razem / Przychód", cell(forms.PIT38.TotalIncome)},
		{"C.25", "Razem / Koszty uzyskania przychodów", cell(forms.PIT38.TotalCost)},
		{"C.26", "Dochód", cell(forms.PIT38.Profit)},
		{"C.27", "Strata", cell(forms.PIT38.Loss)},
		{"D.29", "Podstawa obliczenia podatku (po zaokrągleniu do pełnych złotych)", forms.PIT38.TaxBase},
		{"D.31", "Podatek dochodowy, o którym mowa w art. 30b ustawy", forms.PIT38.TaxDue},
		{"D.33", "Podatek należny (po zaokrągleniu do pełnych złotych)", forms.PIT38.TaxDue},
	}
	if err := writeRows(f, sheetSecurities, securities); err != nil {
		return err
	}

	dividends := [][]interface{}{
		{"KRAJ", "KOMÓRKA", "NAZWA", "WARTOŚĆ"},
	}
	totalGross := decimal.Zero
	for _, d := range forms.PIT38.Dividends {
		totalGross = totalGross.Add(d.GrossDividend)
	}
	dividends = append(dividends, []interface{}{
		"-", "-", "Suma wypłat dywidend zagranicznych (wiersz pomocniczy)", cell(totalGross),
	})
	for _, d := range forms.PIT38.Dividends {
		dividends = append(dividends,
			[]interface{}{d.Country, "G.45", "Zryczałtowany podatek obliczony od przychodów uzyskanych poza granicami Rzeczypospolitej Polskiej", cell(d.TaxDue)},
			[]interface{}{d.Country, "G.46", "Podatek zapłacony za granicą (przeliczony na złote)", cell(d.TaxPaidAbroad)},
			[]interface{}{d.Country, "-", "Podatek podlegający odliczeniu (wiersz pomocniczy)", cell(d.CreditableTax)},
			[]interface{}{d.Country, "G.47", "Różnica między zryczałtowanym podatkiem a podatkiem zapłaconym za granicą", cell(d.TaxToPay)},
		)
	}
	if err := writeRows(f, sheetDividends, dividends); err != nil {
		return err
	}

	pitzg := [][]interface{}{
		{"PAŃSTWO UZYSKANIA PRZYCHODU", "UWZGLĘDNIĆ W OFICJALNYM PIT/ZG", "WYMAGA WERYFIKACJI", "PRZYCHÓD [PLN]", "KOSZT UZYSKANIA PRZYCHODU [PLN]", "BILANS [PLN]", "PODATEK ZAPŁACONY ZA GRANICĄ [PLN]"},
	}
	for _, row := range forms.PITZG {
		pitzg = append(pitzg, []interface{}{
			row.CountryDisplay,
			yesNo(row.IncludeInForm),
			yesNo(row.RequiresVerification),
			cell(row.Income),
			cell(row.Cost),
			cell(row.Profit),
			cell(row.TaxPaidAbroad),
		})
	}
	if err := writeRows(f, sheetPITZG, pitzg); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
