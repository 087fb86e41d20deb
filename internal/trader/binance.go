package trader

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/istin/tradingaizer/internal/logger"
	"github.com/istin/tradingaizer/internal/types"
	"github.com/istin/tradingaizer/pkg/errors"
)

// BinanceConfig carries the venue credentials.
type BinanceConfig struct {
	APIKey    string `yaml:"api_key" validate:"required"`
	APISecret string `yaml:"api_secret" validate:"required"`
	Testnet   bool   `yaml:"testnet"`
}

// BinanceExecutor is the USDT-M futures venue adapter. Positions live at the
// venue; the adapter reconstructs a Deal from position risk data so the
// trader can resume after a restart. Stop-losses are venue-side STOP_MARKET
// close-position orders, replaced wholesale on every update.
type BinanceExecutor struct {
	client *futures.Client
	logger *logger.Logger

	// stepSizes caches the LOT_SIZE step per symbol; exchange info is
	// fetched once per symbol.
	stepSizes map[string]decimal.Decimal
}

// NewBinanceExecutor connects the executor to Binance futures.
func NewBinanceExecutor(cfg BinanceConfig, l *logger.Logger) *BinanceExecutor {
	if cfg.Testnet {
		futures.UseTestnet = true
	}

	return &BinanceExecutor{
		client:    futures.NewClient(cfg.APIKey, cfg.APISecret),
		logger:    l,
		stepSizes: make(map[string]decimal.Decimal),
	}
}

// GetBalance returns the free USDT balance of the futures wallet.
func (e *BinanceExecutor) GetBalance(ctx context.Context) (float64, error) {
	balances, err := e.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVenueCallFailed, "fetch futures balance", err)
	}

	for _, balance := range balances {
		if balance.Asset != "USDT" {
			continue
		}

		amount, err := strconv.ParseFloat(balance.Balance, 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeVenueCallFailed, err,
				"parse USDT balance %q", balance.Balance)
		}

		return amount, nil
	}

	return 0, nil
}

// SubmitDeal opens the position with a market order sized from the deal's
// notional at the opening bar's price, truncated to the symbol's LOT_SIZE
// step.
func (e *BinanceExecutor) SubmitDeal(ctx context.Context, deal *types.Deal) error {
	quantity, err := e.quantityFor(ctx, deal.Ticker, deal.OpenAmount, deal.OpenedBar.Price())
	if err != nil {
		return err
	}

	side := futures.SideTypeBuy
	if deal.Direction == types.DirectionShort {
		side = futures.SideTypeSell
	}

	order, err := e.client.NewCreateOrderService().
		Symbol(deal.Ticker).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeVenueCallFailed, "submit market order", err)
	}

	e.logger.Info("deal submitted",
		zap.String("ticker", deal.Ticker),
		zap.String("side", string(side)),
		zap.String("quantity", quantity),
		zap.Int64("order_id", order.OrderID))

	return nil
}

// CloseDeal flattens the position with an opposite-side market order and
// cancels the remaining stop order.
func (e *BinanceExecutor) CloseDeal(ctx context.Context, deal *types.Deal, closePrice float64) error {
	position, err := e.positionFor(ctx, deal.Ticker)
	if err != nil {
		return err
	}

	if position == nil {
		return errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", deal.Ticker)
	}

	side := futures.SideTypeSell
	if position.amount.IsNegative() {
		side = futures.SideTypeBuy
	}

	_, err = e.client.NewCreateOrderService().
		Symbol(deal.Ticker).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(position.amount.Abs().String()).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeVenueCallFailed, "submit closing order", err)
	}

	if err := e.client.NewCancelAllOpenOrdersService().Symbol(deal.Ticker).Do(ctx); err != nil {
		e.logger.Warn("cancel of remaining stop orders failed",
			zap.String("ticker", deal.Ticker),
			zap.Error(err))
	}

	return nil
}

// CurrentDeal rebuilds a Deal from the venue's position risk data and the
// stop price of any open STOP_MARKET order.
func (e *BinanceExecutor) CurrentDeal(ctx context.Context, ticker string) (optional.Option[types.Deal], error) {
	none := optional.None[types.Deal]()

	position, err := e.positionFor(ctx, ticker)
	if err != nil {
		return none, err
	}

	if position == nil {
		return none, nil
	}

	direction := types.DirectionLong
	if position.amount.IsNegative() {
		direction = types.DirectionShort
	}

	stopLoss, err := e.openStopPrice(ctx, ticker)
	if err != nil {
		return none, err
	}

	// The opening bar is synthesized from the venue's entry price; the
	// original open time is not recoverable from position risk data.
	now := time.Now()
	entryBar := types.Bar{
		OpenTime:  now,
		Open:      position.entryPrice,
		High:      position.entryPrice,
		Low:       position.entryPrice,
		Close:     position.entryPrice,
		CloseTime: now,
	}

	notional := position.amount.Abs().InexactFloat64() * position.entryPrice

	return optional.Some(types.Deal{
		ID:         "binance-" + ticker,
		Ticker:     ticker,
		Direction:  direction,
		OpenedBar:  entryBar,
		StopLoss:   stopLoss,
		OpenAmount: notional,
	}), nil
}

// UpdateStopLoss replaces the venue-side stop: all open orders for the
// symbol are cancelled and a fresh close-position STOP_MARKET order is
// placed at the new price.
func (e *BinanceExecutor) UpdateStopLoss(ctx context.Context, deal *types.Deal, newStop float64) error {
	if err := e.client.NewCancelAllOpenOrdersService().Symbol(deal.Ticker).Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeVenueCallFailed, "cancel previous stop orders", err)
	}

	side := futures.SideTypeSell
	if deal.Direction == types.DirectionShort {
		side = futures.SideTypeBuy
	}

	_, err := e.client.NewCreateOrderService().
		Symbol(deal.Ticker).
		Side(side).
		PositionSide(futures.PositionSideTypeBoth).
		Type(futures.OrderTypeStopMarket).
		StopPrice(strconv.FormatFloat(newStop, 'f', -1, 64)).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeVenueCallFailed, "place stop-market order", err)
	}

	return nil
}

type binancePosition struct {
	amount     decimal.Decimal
	entryPrice float64
}

func (e *BinanceExecutor) positionFor(ctx context.Context, ticker string) (*binancePosition, error) {
	risks, err := e.client.NewGetPositionRiskService().Symbol(ticker).Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVenueCallFailed, "fetch position risk", err)
	}

	for _, risk := range risks {
		amount, err := decimal.NewFromString(risk.PositionAmt)
		if err != nil || amount.IsZero() {
			continue
		}

		entry, err := strconv.ParseFloat(risk.EntryPrice, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeVenueCallFailed, err,
				"parse entry price %q", risk.EntryPrice)
		}

		return &binancePosition{amount: amount, entryPrice: entry}, nil
	}

	return nil, nil
}

func (e *BinanceExecutor) openStopPrice(ctx context.Context, ticker string) (float64, error) {
	orders, err := e.client.NewListOpenOrdersService().Symbol(ticker).Do(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVenueCallFailed, "list open orders", err)
	}

	for _, order := range orders {
		if order.Type != futures.OrderTypeStopMarket {
			continue
		}

		stop, err := strconv.ParseFloat(order.StopPrice, 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeVenueCallFailed, err,
				"parse stop price %q", order.StopPrice)
		}

		return stop, nil
	}

	return 0, nil
}

// quantityFor converts a USDT notional into a base quantity truncated to
// the symbol's LOT_SIZE step scale, matching what the venue accepts.
func (e *BinanceExecutor) quantityFor(ctx context.Context, ticker string, notional, price float64) (string, error) {
	step, err := e.stepSize(ctx, ticker)
	if err != nil {
		return "", err
	}

	quantity := decimal.NewFromFloat(notional / price).Truncate(-step.Exponent())

	if quantity.IsZero() {
		return "", errors.Newf(errors.ErrCodeInvalidParameter,
			"notional %.2f at price %.2f is below the minimum %s step", notional, price, step)
	}

	return quantity.String(), nil
}

func (e *BinanceExecutor) stepSize(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if step, ok := e.stepSizes[ticker]; ok {
		return step, nil
	}

	info, err := e.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.ErrCodeVenueCallFailed, "fetch exchange info", err)
	}

	for _, symbol := range info.Symbols {
		if symbol.Symbol != ticker {
			continue
		}

		filter := symbol.LotSizeFilter()
		if filter == nil {
			break
		}

		step, err := decimal.NewFromString(filter.StepSize)
		if err != nil {
			return decimal.Zero, errors.Wrapf(errors.ErrCodeStepSizeNotFound, err,
				"parse step size %q", filter.StepSize)
		}

		e.stepSizes[ticker] = step

		return step, nil
	}

	return decimal.Zero, errors.Newf(errors.ErrCodeStepSizeNotFound, "no LOT_SIZE filter for %s", ticker)
}
