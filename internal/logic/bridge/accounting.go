package bridge

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wzec-network/wzec-bridge/internal/metrics"
	"github.com/wzec-network/wzec-bridge/internal/model"
)

// reserve warning threshold: reserve / outstanding below this ratio is
// worth an operator's attention even while still fully backed
var lowReserveRatio = decimal.RequireFromString("1.1")

func (o *OrchestratorService) sumDeposits(status int) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := o.db.Model(&model.Deposit{}).
		Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().Status), status).
		Pluck(model.Deposit{}.Column().Amount, &amounts).Error
	return sum(amounts), err
}

func (o *OrchestratorService) sumMints() (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := o.db.Model(&model.Mint{}).
		Where(fmt.Sprintf("%s = ?", model.Mint{}.Column().Status), model.MintStatusCompleted).
		Pluck(model.Mint{}.Column().Amount, &amounts).Error
	return sum(amounts), err
}

func (o *OrchestratorService) sumBurns() (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := o.db.Model(&model.Burn{}).
		Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().Status), model.BurnStatusCompleted).
		Pluck(model.Burn{}.Column().Amount, &amounts).Error
	return sum(amounts), err
}

func (o *OrchestratorService) sumWithdrawals() (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := o.db.Model(&model.Withdrawal{}).
		Where(fmt.Sprintf("%s IN (?)", model.Withdrawal{}.Column().Status), []int{
			model.WithdrawalStatusSent,
			model.WithdrawalStatusConfirmed,
			model.WithdrawalStatusCompleted,
		}).
		Pluck(model.Withdrawal{}.Column().Amount, &amounts).Error
	return sum(amounts), err
}

func sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// RecomputeBridgeState rebuilds the reserve aggregate purely from
// completed settlement rows and persists it. Fees are not moved anywhere;
// they are the arithmetic residual between gross value received and net
// value settled on each side.
func (o *OrchestratorService) RecomputeBridgeState() error {
	totalLocked, err := o.sumDeposits(model.DepositStatusCompleted)
	if err != nil {
		return fmt.Errorf("sum deposits: %w", err)
	}
	totalMinted, err := o.sumMints()
	if err != nil {
		return fmt.Errorf("sum mints: %w", err)
	}
	totalBurned, err := o.sumBurns()
	if err != nil {
		return fmt.Errorf("sum burns: %w", err)
	}
	totalWithdrawn, err := o.sumWithdrawals()
	if err != nil {
		return fmt.Errorf("sum withdrawals: %w", err)
	}
	feesCollected := totalLocked.Sub(totalMinted).Add(totalBurned.Sub(totalWithdrawn))

	col := model.BridgeState{}.Column()
	err = o.db.Model(&model.BridgeState{}).
		Where("id = ?", model.BridgeStateID).
		Updates(map[string]interface{}{
			col.TotalLocked:    totalLocked,
			col.TotalMinted:    totalMinted,
			col.TotalBurned:    totalBurned,
			col.TotalWithdrawn: totalWithdrawn,
			col.FeesCollected:  feesCollected,
		}).Error
	if err != nil {
		return fmt.Errorf("update bridge state: %w", err)
	}

	lockedF, _ := totalLocked.Float64()
	mintedF, _ := totalMinted.Float64()
	burnedF, _ := totalBurned.Float64()
	withdrawnF, _ := totalWithdrawn.Float64()
	feesF, _ := feesCollected.Float64()
	metrics.TotalLocked.Set(lockedF)
	metrics.TotalMinted.Set(mintedF)
	metrics.TotalBurned.Set(burnedF)
	metrics.TotalWithdrawn.Set(withdrawnF)
	metrics.FeesCollected.Set(feesF)

	o.checkBacking(totalLocked, totalMinted, totalBurned, totalWithdrawn)
	return nil
}

// checkBacking monitors the 100%-backing invariant. Violations are alert
// conditions, never a reason to halt settlement here.
func (o *OrchestratorService) checkBacking(totalLocked, totalMinted, totalBurned, totalWithdrawn decimal.Decimal) {
	reserve := totalLocked.Sub(totalWithdrawn)
	outstanding := totalMinted.Sub(totalBurned)

	if !outstanding.IsPositive() {
		metrics.ReserveRatio.Set(0)
		return
	}
	ratio := reserve.Div(outstanding)
	ratioF, _ := ratio.Float64()
	metrics.ReserveRatio.Set(ratioF)

	if reserve.LessThan(outstanding) {
		metrics.BackingViolations.Inc()
		o.log.Errorw("backing invariant violated: reserve below outstanding supply",
			"reserve", reserve,
			"outstanding", outstanding)
		return
	}
	if ratio.LessThan(lowReserveRatio) {
		o.log.Warnw("reserve ratio running low",
			"reserve", reserve,
			"outstanding", outstanding,
			"ratio", ratio)
	}
}
