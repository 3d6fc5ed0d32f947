package decoder

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gnFrame = append([]byte{0x11, 0x00, 0x50, 0x0a, 0x20, 0x50, 0x01, 0x80, 0x00, 0x00, 0x01, 0x00}, bytes.Repeat([]byte{0xab}, 60)...)

func ethernetFrame(t *testing.T, etherType layers.EthernetType, payload []byte) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x02, 0x03, 0x37, 0x42, 0x4d},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: etherType,
	}
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(payload)))
	return buf.Bytes()
}

func TestDecodeEthernet(t *testing.T) {
	d := NewDecoder()
	gn, err := d.Decode(ethernetFrame(t, EtherTypeGeoNetworking, gnFrame), layers.LinkTypeEthernet)
	require.NoError(t, err)
	assert.Equal(t, gnFrame, gn)

	_, err = d.Decode(ethernetFrame(t, layers.EthernetTypeIPv4, gnFrame), layers.LinkTypeEthernet)
	assert.ErrorIs(t, err, ErrNotGeoNetworking)

	assert.Equal(t, Stats{Ethernet: 2, GeoNetworking: 1, Other: 1}, d.Stats())
}

func TestDecodeVLANTagged(t *testing.T) {
	buf := gopacket.NewSerializeBuffer()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeDot1Q,
	}
	vlan := &layers.Dot1Q{VLANIdentifier: 42, Type: EtherTypeGeoNetworking}
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, vlan, gopacket.Payload(gnFrame)))

	gn, err := NewDecoder().Decode(buf.Bytes(), layers.LinkTypeEthernet)
	require.NoError(t, err)
	assert.Equal(t, gnFrame, gn)
}

func TestDecodeDot11SNAP(t *testing.T) {
	frame := []byte{
		0x08, 0x00, // data frame, no flags
		0x00, 0x00, // duration
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // receiver
		0x00, 0x02, 0x03, 0x37, 0x42, 0x4d, // transmitter
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // BSSID wildcard, OCB mode
		0x00, 0x00, // sequence control
		0xaa, 0xaa, 0x03, // LLC
		0x00, 0x00, 0x00, 0x89, 0x47, // SNAP
	}
	frame = append(frame, gnFrame...)
	frame = append(frame, 0, 0, 0, 0) // FCS

	gn, err := NewDecoder().Decode(frame, layers.LinkTypeIEEE802_11)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(gn, gnFrame))
}

func TestDecodeUnsupportedLinkType(t *testing.T) {
	_, err := NewDecoder().Decode(gnFrame, layers.LinkTypeRaw)
	assert.ErrorIs(t, err, ErrUnsupportedLinkType)
	assert.False(t, Supported(layers.LinkTypeRaw))
	assert.True(t, Supported(layers.LinkTypeIEEE80211Radio))
}
