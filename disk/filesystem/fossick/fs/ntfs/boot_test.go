package ntfs

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBootHeader(t *testing.T) {
	b := make([]byte, 512)
	copy(b[3:], OEMName)
	binary.LittleEndian.PutUint16(b[0x0B:], 512)
	b[0x0D] = 8
	binary.LittleEndian.PutUint64(b[0x28:], 41943039)

	bh, err := ParseBootHeader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), bh.ClusterSize())
	assert.Equal(t, int64(41943039*512), bh.Size())

	_, err = ParseBootHeader(bytes.NewReader(make([]byte, 512)))
	assert.Error(t, err)
}

func TestParseFreeClusters(t *testing.T) {
	out := `Volume Information
	Name of device: /dev/sda2
	Device state: 11
	Volume Name: Data
	Cluster Size: 4096
	Free Clusters: 2621440 (50.0%)`
	n, err := parseFreeClusters(out, 4096)
	require.NoError(t, err)
	assert.Equal(t, int64(2621440*4096), n)

	_, err = parseFreeClusters("garbage", 4096)
	assert.Error(t, err)
}
