package conf

import (
	"fmt"
	"sync"
	"time"
)

type config struct {
	// Interval at which the runtime drains pending transactions from
	// the mempool and applies them.
	applyInterval time.Duration

	// Max number of transactions applied per drain.
	applyBatchSize int

	// Max number of pending transactions admitted into the mempool.
	mempoolCapacity int

	// Max data size an account may be created with.
	maxAccountDataSize uint64

	// Number of applied transaction records retained before pruning.
	txHistoryLimit uint64

	// Bloom filter sizing for the applied-transaction filter.
	bloomFilterM uint
	bloomFilterK uint

	// shared secret for http api authorization
	secret string
}

var (
	l sync.RWMutex

	defaultConf = defaultConfig()
	c           = defaultConf
)

func defaultConfig() config {
	return config{
		applyInterval:   100 * time.Millisecond,
		applyBatchSize:  256,
		mempoolCapacity: 16384,

		maxAccountDataSize: 1 << 20,

		txHistoryLimit: 4096,

		bloomFilterM: 1 << 20,
		bloomFilterK: 4,
	}
}

type Option func(*config)

func WithApplyInterval(ai time.Duration) Option {
	return func(c *config) {
		c.applyInterval = ai
	}
}

func WithApplyBatchSize(n int) Option {
	return func(c *config) {
		c.applyBatchSize = n
	}
}

func WithMempoolCapacity(n int) Option {
	return func(c *config) {
		c.mempoolCapacity = n
	}
}

func WithMaxAccountDataSize(n uint64) Option {
	return func(c *config) {
		c.maxAccountDataSize = n
	}
}

func WithTxHistoryLimit(n uint64) Option {
	return func(c *config) {
		c.txHistoryLimit = n
	}
}

func WithBloomFilterM(m uint) Option {
	return func(c *config) {
		c.bloomFilterM = m
	}
}

func WithBloomFilterK(k uint) Option {
	return func(c *config) {
		c.bloomFilterK = k
	}
}

func WithSecret(s string) Option {
	return func(c *config) {
		c.secret = s
	}
}

func GetApplyInterval() time.Duration {
	l.RLock()
	t := c.applyInterval
	l.RUnlock()

	return t
}

func GetApplyBatchSize() int {
	l.RLock()
	t := c.applyBatchSize
	l.RUnlock()

	return t
}

func GetMempoolCapacity() int {
	l.RLock()
	t := c.mempoolCapacity
	l.RUnlock()

	return t
}

func GetMaxAccountDataSize() uint64 {
	l.RLock()
	t := c.maxAccountDataSize
	l.RUnlock()

	return t
}

func GetTxHistoryLimit() uint64 {
	l.RLock()
	t := c.txHistoryLimit
	l.RUnlock()

	return t
}

func GetBloomFilterM() uint {
	l.RLock()
	t := c.bloomFilterM
	l.RUnlock()

	return t
}

func GetBloomFilterK() uint {
	l.RLock()
	t := c.bloomFilterK
	l.RUnlock()

	return t
}

func GetSecret() string {
	l.RLock()
	t := c.secret
	l.RUnlock()

	return t
}

func Update(options ...Option) {
	l.Lock()

	for _, option := range options {
		option(&c)
	}

	l.Unlock()
}

func Stringify() string {
	l.RLock()
	s := fmt.Sprintf("%+v", c)
	l.RUnlock()

	return s
}

func Reset() {
	l.Lock()
	c = defaultConf
	l.Unlock()
}
