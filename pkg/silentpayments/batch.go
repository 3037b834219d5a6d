package silentpayments

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Transaction is one candidate transaction for batch scanning.
type Transaction struct {
	// InputPubKeys are the compressed public keys of every input.
	InputPubKeys [][]byte
	// Outpoints are the serialized outpoints of every input.
	Outpoints [][]byte
	// Outputs are the transaction's taproot outputs.
	Outputs []CandidateOutput
}

// ScanTransactions scans a batch of transactions concurrently and returns
// one result slice per transaction, index-aligned with the input.
//
// Scanning is a pure CPU-bound function per transaction, so the batch is
// simply sharded across workers with no coordination beyond collecting the
// per-transaction result lists. workers <= 0 uses one worker per CPU.
func ScanTransactions(ctx context.Context, scanPrivateKey, spendPubKey []byte,
	txs []Transaction, workers int) ([][]ReceivedPayment, error) {

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([][]ReceivedPayment, len(txs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range txs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			payments, err := ScanForPayments(
				scanPrivateKey, spendPubKey,
				txs[i].InputPubKeys, txs[i].Outpoints, txs[i].Outputs,
			)
			if err != nil {
				return err
			}
			results[i] = payments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
