// Package validate runs consistency checks on the metrics extracted from one
// quarterly report and provides the growth arithmetic shared by enrichment.
package validate

import (
	"fmt"
	"math"

	"quarterly_intel/pkg/models"
)

// Config holds check tolerances.
type Config struct {
	// MarginTolerance is the allowed gap, in percentage points, between a
	// reported operating margin and operating profit / revenue.
	MarginTolerance float64
}

func DefaultConfig() Config {
	return Config{MarginTolerance: 1.0}
}

// PercentChange returns (current - prior) / |prior| * 100. ok is false when
// prior is zero.
func PercentChange(current, prior float64) (pct float64, ok bool) {
	if prior == 0 {
		return 0, false
	}
	return (current - prior) / math.Abs(prior) * 100, true
}

// Metrics checks the relationships that must hold between quarterly metrics.
// Checks whose inputs are missing are not run.
func Metrics(m map[string]models.Metric, cfg Config) models.ValidationReport {
	var checks []models.ValidationCheck

	rev, hasRev := value(m, models.KeyTotalRevenue)
	np, hasNP := value(m, models.KeyNetProfit)
	op, hasOP := value(m, models.KeyOperatingProfit)
	ebitda, hasEBITDA := value(m, models.KeyEBITDA)
	margin, hasMargin := value(m, models.KeyOperatingMargin)

	if hasRev {
		checks = append(checks, check("Revenue Positive", rev > 0, rev, 0,
			fmt.Sprintf("total revenue %.2f is not positive", rev)))
	}
	if hasRev && hasNP {
		checks = append(checks, check("Net Profit Within Revenue", np <= rev, np, rev,
			fmt.Sprintf("net profit %.2f exceeds revenue %.2f", np, rev)))
	}
	if hasRev && hasOP {
		checks = append(checks, check("Operating Profit Within Revenue", op <= rev, op, rev,
			fmt.Sprintf("operating profit %.2f exceeds revenue %.2f", op, rev)))
	}
	if hasOP && hasEBITDA {
		checks = append(checks, check("EBITDA Covers Operating Profit", ebitda >= op, ebitda, op,
			fmt.Sprintf("ebitda %.2f is below operating profit %.2f", ebitda, op)))
	}
	if hasMargin {
		if hasRev && hasOP && rev != 0 {
			calc := op / rev * 100
			diff := math.Abs(margin - calc)
			c := check("Operating Margin", diff <= cfg.MarginTolerance, margin, calc,
				fmt.Sprintf("reported margin %.2f%% differs from computed %.2f%% by %.2f points", margin, calc, diff))
			c.Tolerance = cfg.MarginTolerance
			checks = append(checks, c)
		} else {
			checks = append(checks, check("Operating Margin Range", margin >= -100 && margin <= 100, margin, 0,
				fmt.Sprintf("operating margin %.2f%% is outside [-100, 100]", margin)))
		}
	}

	report := models.ValidationReport{Checks: checks, AllPassed: true}
	for _, c := range checks {
		if !c.Passed {
			report.AllPassed = false
			report.FailedChecks = append(report.FailedChecks, c.Name)
		}
	}
	return report
}

func value(m map[string]models.Metric, key string) (float64, bool) {
	metric, ok := m[key]
	return metric.Value, ok
}

func check(name string, passed bool, actual, expected float64, failure string) models.ValidationCheck {
	c := models.ValidationCheck{Name: name, Passed: passed, Actual: actual, Expected: expected}
	if !passed {
		c.Message = failure
	}
	return c
}
