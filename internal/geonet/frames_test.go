package geonet

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// securedDENMv2 is a captured secured GBC circle frame carrying a DENM v2 from
// station 777777777.
const securedDENMv2 = "12 00 50 0a 03 81 00 40 03 80 65 20 40 01 80 00 31 0a 00 f6 d2 00 00 14 00 00 02 03 37 42 4d 38 df 6d b9 23 b6 79 70 06 64 24 bc 80 00 00 00 24 72 11 00 05 31 2d e0 00 c8 00 00 00 00 00 00 07 d2 00 00 02 01 2e 5b f2 71 81 17 2d f9 38 80 00 90 38 ec d8 01 04 19 b1 19 9c 45 a1 6f a0 07 07 af fe 0f ff ff fe 11 db ba 10 a8 c0 00 00 03 02 50 01 25 00 02 08 66 2a fa 11 8f 23 b6 79 70 06 64 24 bc 5a 3c 81 01 01 80 03 00 80 09 70 72 65 a6 17 74 e8 10 83 00 00 00 00 00 22 1a 92 76 84 00 c8 01 0e 00 03 08 40 81 80 02 40 42 81 06 05 01 ff ff ff ff 80 03 08 40 83 81 06 05 01 ff ff ff ff 80 01 24 81 04 03 01 ff fc 80 01 25 81 05 04 01 ff ff ff 80 01 89 81 03 02 01 e0 80 01 8a 81 03 02 01 c0 80 01 8b 81 07 06 01 30 c0 01 ff f8 00 01 8d 80 01 35 81 06 05 01 ff ff ff ff 80 01 36 81 06 05 01 ff ff ff ff 80 02 02 7d 81 02 01 01 80 02 02 7e 81 05 04 01 ff ff ff 80 02 02 7f 81 05 04 01 ff ff ff 80 80 83 62 ec a1 b9 80 e1 b9 89 1c 6e aa fb 11 16 14 ef fa a3 9e 9b 58 40 fe 07 8d 42 a7 d3 dd ef 10 f3 81 80 6e 6f 60 57 3c 60 23 a6 6f 65 35 52 eb cf 57 24 18 e3 f4 ae 9a 14 b2 70 37 18 45 cf 6f eb e4 b9 5f 53 b3 08 55 7e 58 0f c9 0a 26 ac bc 9f cc 97 a3 ea 77 9f b3 80 ee 6c a0 28 b2 05 c1 3c 84 06 80 80 4a 45 24 5c 08 55 f4 6b c7 ea c9 64 0e 60 74 95 3b ae 0f 26 53 9c 06 15 a9 ff d4 77 80 5b 75 20 87 9f 5c 52 5b d6 da ff fe 95 0b 81 e9 3d f1 45 c5 ff 40 b0 2e a9 b1 25 b9 cc ce f6 67 c4 14 0b"

// securedDENMv1 is the same station sending a DENMv1 message.
const securedDENMv1 = "12 00 50 0a 03 81 00 40 03 80 65 20 40 01 80 00 31 0a 00 58 6f 00 00 14 00 00 02 03 37 42 4d e6 89 50 57 23 b6 79 70 06 64 24 bc 80 00 00 00 24 72 11 00 05 31 2d e0 00 c8 00 00 00 00 00 00 07 d2 00 00 01 01 2e 5b f2 71 81 17 2d f9 38 80 00 90 38 ec d8 01 04 19 b1 19 9c 45 a1 6f a0 07 07 af fe 0f ff ff fe 11 db ba 10 a8 c0 00 00 06 04 50 01 25 00 02 07 24 8a a1 a9 49 23 b6 79 70 06 64 24 bc 5a 3c 81 01 01 80 03 00 80 09 70 72 65 a6 17 74 e8 10 83 00 00 00 00 00 21 fb 89 db 84 00 c8 01 0e 00 03 08 40 81 80 02 40 42 81 06 05 01 ff ff ff ff 80 03 08 40 83 81 06 05 01 ff ff ff ff 80 01 24 81 04 03 01 ff fc 80 01 25 81 05 04 01 ff ff ff 80 01 89 81 03 02 01 e0 80 01 8a 81 03 02 01 c0 80 01 8b 81 07 06 01 30 c0 01 ff f8 00 01 8d 80 01 35 81 06 05 01 ff ff ff ff 80 01 36 81 06 05 01 ff ff ff ff 80 02 02 7d 81 02 01 01 80 02 02 7e 81 05 04 01 ff ff ff 80 02 02 7f 81 05 04 01 ff ff ff 80 80 82 ee 59 28 9e bf 79 ee 88 a0 40 70 83 32 ca 73 51 51 e3 3e 3e 52 33 99 e5 e1 8b 29 ff 6c b3 ba 4e 81 80 33 b3 2e 8b 01 7f 65 74 a2 0a ca d9 c2 da 62 eb 2f 9e b3 81 23 fe 99 01 ce 95 27 0e 39 f1 b9 3a 93 a5 20 cb 48 78 db 6d d1 79 02 ae 5e 7c 17 55 aa da b5 e3 3b 42 dc 2c 4a d0 56 23 b5 74 a7 78 80 80 f8 2b 39 9d 56 9e 44 25 9a 8f 33 8d dd c1 b2 0a 9d 7c ad 4b 7c c3 1f 98 9a b5 80 15 d4 7e b9 34 46 78 1b 44 b0 c1 81 81 70 fe 3f 4e 9f 76 1c 43 31 c3 45 c3 01 ce 2f 57 23 6d 68 d8 30 b9 88 47"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := BytesFromHexString(s)
	require.NoError(t, err)
	return b
}

// frameBuilder assembles unsecured GeoNetworking frames for tests.
type frameBuilder struct {
	version     uint8
	nextHeader  NextHeader
	lifetime    Lifetime
	rhl         uint8
	upper       UpperProtocol
	headerType  HeaderType
	mhl         uint8
	seq         uint16
	sender      Address
	area        Area
	payload     []byte
	declaredLen int // -1 uses len(payload)
}

func newFrameBuilder() *frameBuilder {
	return &frameBuilder{
		version:     1,
		nextHeader:  NextHeaderCommonHeader,
		lifetime:    NewLifetime(20, 0),
		rhl:         10,
		upper:       UpperProtocolBTPB,
		headerType:  HeaderTypeGeoBroadcastCircle,
		mhl:         10,
		seq:         42,
		sender:      NewAddress(false, StationTypePassengerCar, 0, []byte{0x00, 0x02, 0x03, 0x37, 0x42, 0x4d}),
		area:        NewCircle(NewPosition(61.1455232, 8.7109088), 200),
		payload:     []byte{0x07, 0xd2, 0x00, 0x00, 0x02, 0x01, 0x00, 0x00, 0x30, 0x39},
		declaredLen: -1,
	}
}

func (f *frameBuilder) basicAndCommon() []byte {
	pl := f.declaredLen
	if pl < 0 {
		pl = len(f.payload)
	}
	b := []byte{
		f.version<<4 | uint8(f.nextHeader), 0, uint8(f.lifetime), f.rhl,
		uint8(f.upper) << 4, uint8(f.headerType), 0x01, 0x80, 0, 0, f.mhl, 0,
	}
	binary.BigEndian.PutUint16(b[8:], uint16(pl))
	return b
}

func (f *frameBuilder) bytes() []byte {
	b := f.basicAndCommon()
	b = binary.BigEndian.AppendUint16(b, f.seq)
	b = append(b, 0, 0)
	b = binary.BigEndian.AppendUint64(b, uint64(f.sender))
	b = binary.BigEndian.AppendUint32(b, 1000)
	b = binary.BigEndian.AppendUint32(b, uint32(f.area.Center.Lat))
	b = binary.BigEndian.AppendUint32(b, uint32(f.area.Center.Lon))
	b = append(b, 0x80, 0x00, 0x00, 0x00)
	b = binary.BigEndian.AppendUint32(b, uint32(f.area.Center.Lat))
	b = binary.BigEndian.AppendUint32(b, uint32(f.area.Center.Lon))
	b = binary.BigEndian.AppendUint16(b, f.area.DistanceA)
	b = binary.BigEndian.AppendUint16(b, f.area.DistanceB)
	b = binary.BigEndian.AppendUint16(b, f.area.Angle)
	b = append(b, 0, 0)
	return append(b, f.payload...)
}
