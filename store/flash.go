package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/merliot/ranger"
)

// BlockDevice is flash memory as TinyGo's machine.Flash presents it.
// EraseBlocks takes a block number and a block count.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
	WriteBlockSize() int64
	EraseBlockSize() int64
	EraseBlocks(start, len int64) error
}

// Record layout, little endian:
//
//	magic "RNGR" | seq u32 | len u16 | crc32 u32 | identity
//
// The CRC covers seq, len and the identity bytes.
const (
	recordMagic  = "RNGR"
	headerLen    = 14
	maxRecordLen = headerLen + ranger.MaxIdentityLen
)

// Flash keeps the identity in two erase blocks used alternately.  A save
// writes the block not holding the current record, with the next sequence
// number; Load takes the valid record with the highest sequence.  A save cut
// short by power loss fails its CRC and the previous record stays current.
type Flash struct {
	dev    BlockDevice
	offset int64
	block  int64
	mount  mount
}

// NewFlash uses the two erase blocks starting at byte offset of dev
func NewFlash(dev BlockDevice, offset int64) *Flash {
	return &Flash{dev: dev, offset: offset}
}

// Mount checks the device can hold two record slots at the offset
func (f *Flash) Mount() error {
	return f.mount.do(func() error {
		f.block = f.dev.EraseBlockSize()
		switch {
		case f.block <= 0:
			return fmt.Errorf("bad erase block size %d", f.block)
		case f.block < maxRecordLen:
			return fmt.Errorf("erase block %d bytes, need %d", f.block, maxRecordLen)
		case f.offset < 0 || f.offset%f.block != 0:
			return fmt.Errorf("offset %d not aligned to erase block %d", f.offset, f.block)
		case f.offset+2*f.block > f.dev.Size():
			return fmt.Errorf("device too small: %d bytes, need %d", f.dev.Size(), f.offset+2*f.block)
		}
		return nil
	})
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotValid
	slotCorrupt
)

type slot struct {
	state slotState
	seq   uint32
	id    ranger.Identity
}

func (f *Flash) slotOffset(i int) int64 {
	return f.offset + int64(i)*f.block
}

func (f *Flash) readSlot(i int) (slot, error) {
	buf := make([]byte, maxRecordLen)
	if _, err := f.dev.ReadAt(buf, f.slotOffset(i)); err != nil && err != io.EOF {
		return slot{}, err
	}
	return decodeRecord(buf), nil
}

func decodeRecord(buf []byte) slot {
	if !bytes.Equal(buf[:4], []byte(recordMagic)) {
		return slot{state: slotEmpty}
	}
	seq := binary.LittleEndian.Uint32(buf[4:8])
	n := int(binary.LittleEndian.Uint16(buf[8:10]))
	sum := binary.LittleEndian.Uint32(buf[10:14])
	if n > ranger.MaxIdentityLen {
		return slot{state: slotCorrupt}
	}
	data := buf[headerLen : headerLen+n]
	crc := crc32.NewIEEE()
	crc.Write(buf[4:10])
	crc.Write(data)
	if crc.Sum32() != sum || !ranger.ValidIdentity(string(data)) {
		return slot{state: slotCorrupt}
	}
	return slot{state: slotValid, seq: seq, id: ranger.Identity(data)}
}

func encodeRecord(seq uint32, id ranger.Identity, writeBlock int64) []byte {
	n := headerLen + len(id)
	if writeBlock > 1 && int64(n)%writeBlock != 0 {
		n += int(writeBlock - int64(n)%writeBlock)
	}
	buf := bytes.Repeat([]byte{0xff}, n)
	copy(buf, recordMagic)
	binary.LittleEndian.PutUint32(buf[4:8], seq)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(id)))
	copy(buf[headerLen:], id)
	crc := crc32.NewIEEE()
	crc.Write(buf[4:10])
	crc.Write([]byte(id))
	binary.LittleEndian.PutUint32(buf[10:14], crc.Sum32())
	return buf
}

// newer reports whether sequence a follows b, allowing for wraparound
func newer(a, b uint32) bool {
	return int32(a-b) > 0
}

// current returns the index of the newest valid slot, or -1
func current(slots [2]slot) int {
	a, b := slots[0], slots[1]
	switch {
	case a.state == slotValid && b.state == slotValid:
		if newer(b.seq, a.seq) {
			return 1
		}
		return 0
	case a.state == slotValid:
		return 0
	case b.state == slotValid:
		return 1
	}
	return -1
}

func (f *Flash) readSlots() ([2]slot, error) {
	var slots [2]slot
	var firstErr error
	for i := range slots {
		s, err := f.readSlot(i)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("read slot %d: %w", i, err)
		}
		slots[i] = s
	}
	return slots, firstErr
}

// Load treats an unmounted store as empty.  With no valid record, a damaged
// or unreadable slot is a read error rather than an empty store.
func (f *Flash) Load() (ranger.Identity, bool, error) {
	if err := f.Mount(); err != nil {
		return "", false, nil
	}

	slots, err := f.readSlots()
	if i := current(slots); i >= 0 {
		return slots[i].id, true, nil
	}
	if err != nil {
		return "", false, readErr("%w", err)
	}
	if slots[0].state == slotCorrupt || slots[1].state == slotCorrupt {
		return "", false, readErr("identity record corrupt")
	}
	return "", false, nil
}

func (f *Flash) Save(id ranger.Identity) error {
	if err := checkIdentity(id); err != nil {
		return err
	}
	if err := f.Mount(); err != nil {
		return writeErr(err)
	}

	slots, _ := f.readSlots()
	target, seq := 0, uint32(1)
	if i := current(slots); i >= 0 {
		target, seq = 1-i, slots[i].seq+1
	}

	start := f.slotOffset(target) / f.block
	if err := f.dev.EraseBlocks(start, 1); err != nil {
		return writeErr(fmt.Errorf("erase slot %d: %w", target, err))
	}
	rec := encodeRecord(seq, id, f.dev.WriteBlockSize())
	if _, err := f.dev.WriteAt(rec, f.slotOffset(target)); err != nil {
		return writeErr(fmt.Errorf("write slot %d: %w", target, err))
	}

	s, err := f.readSlot(target)
	if err != nil {
		return writeErr(fmt.Errorf("verify slot %d: %w", target, err))
	}
	if s.state != slotValid || s.id != id || s.seq != seq {
		return writeErr(fmt.Errorf("verify slot %d: record did not read back", target))
	}
	return nil
}
