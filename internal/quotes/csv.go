package quotes

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
)

// CSV import for the offline evaluation mode: a quote history exported as
//
//	isin,security_name,security_type,exchange_name,date,price
//	DE0005140008,Deutsche Bank,stock,XETRA,2024-01-02,12.25
//
// is loaded into a MemStore and evaluated without a database. Exchange IDs
// are synthetic, assigned per distinct exchange name in order of appearance.

// LoadCSV reads quote rows from r into a fresh MemStore
func LoadCSV(r io.Reader) (*MemStore, error) {
	store := NewMemStore()
	exchangeIDs := make(map[string]int64)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		// Optional header row
		if line == 1 && strings.EqualFold(record[0], "isin") {
			continue
		}

		isin, secName, secType, exchName := record[0], record[1], record[2], record[3]

		id, ok := exchangeIDs[exchName]
		if !ok {
			id = int64(len(exchangeIDs) + 1)
			exchangeIDs[exchName] = id
		}

		dt, err := time.Parse("2006-01-02", record[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[4], err)
		}

		price, err := decimal.NewFromString(record[5])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q: %w", line, record[5], err)
		}

		key := contracts.SeriesKey{ISIN: isin, ExchangeID: id}
		store.SetSeriesInfo(contracts.SeriesInfo{
			Key:          key,
			SecurityName: secName,
			SecurityType: contracts.SecurityType(secType),
			ExchangeName: exchName,
		})
		if err := store.Upsert(context.Background(), key, dt, price); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// LoadCSVFile opens path and loads it via LoadCSV
func LoadCSVFile(path string) (*MemStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return LoadCSV(f)
}
