package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.EqualValues(t, 100*time.Millisecond, GetApplyInterval())
	assert.EqualValues(t, 256, GetApplyBatchSize())
	assert.EqualValues(t, 16384, GetMempoolCapacity())
	assert.EqualValues(t, 1<<20, GetMaxAccountDataSize())
	assert.EqualValues(t, 4096, GetTxHistoryLimit())
	assert.EqualValues(t, "", GetSecret())
}

func TestUpdate(t *testing.T) {
	defer Reset()

	Update(
		WithApplyInterval(time.Second*2),
		WithApplyBatchSize(7),
		WithMempoolCapacity(666),
		WithMaxAccountDataSize(1024),
		WithTxHistoryLimit(13),
		WithSecret("shambles"),
	)

	assert.EqualValues(t, 2*time.Second, GetApplyInterval())
	assert.EqualValues(t, 7, GetApplyBatchSize())
	assert.EqualValues(t, 666, GetMempoolCapacity())
	assert.EqualValues(t, 1024, GetMaxAccountDataSize())
	assert.EqualValues(t, 13, GetTxHistoryLimit())
	assert.EqualValues(t, "shambles", GetSecret())
}
