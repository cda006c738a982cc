package interest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const ExampleFile = "example.yml"

const exampleUnit = `# Interest rules.
#
# Every .yml/.yaml file under the rules directory is one unit. On each fire
# every known player receives amount * interest_rate / 100 of coin_type in
# the bank, regardless of their current balance.
#
# schedule is a 5-field cron expression: minute hour day-of-month month day-of-week.
# coin_type is one of: coin, copper, silver, gold.
interest:
  starter:
    amount: 100000
    coin_type: coin
    interest_rate: 2
  silver_saver:
    amount: 50000
    coin_type: silver
    interest_rate: 1.5
schedule: '0 0 * * *'
`

// EnsureExample writes example.yml under root unless it already exists.
func EnsureExample(root string) (string, bool, error) {
	path := filepath.Join(root, ExampleFile)

	_, err := os.Stat(path)
	if err == nil {
		return path, false, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("stat example: %w", err)
	}

	err = os.MkdirAll(root, 0o755)
	if err != nil {
		return "", false, fmt.Errorf("create rules dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return path, false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("create example: %w", err)
	}

	_, err = f.WriteString(exampleUnit)

	return path, true, errors.Join(err, f.Close())
}
