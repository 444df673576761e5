package protocol

import (
	"fmt"

	"github.com/legamerdc/gmux/internal/ring"
)

// Encoder 编码单帧；帧体不小于 threshold 时压缩，threshold<=0 关闭压缩
type Encoder struct {
	threshold int
}

func NewEncoder(threshold int) *Encoder { return &Encoder{threshold: threshold} }

// Encode 返回帧头+帧体
func (e *Encoder) Encode(payload []byte) ([]byte, error) {
	body := payload
	compressed := e.threshold > 0 && len(payload) >= e.threshold
	if compressed {
		body = compress(payload)
	}
	out := make([]byte, 0, HeaderSize+len(body))
	out, err := AppendHeader(out, len(body), compressed)
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

// Decoder 累积字节流并切出完整帧，跨多次 Feed 保留半包
type Decoder struct {
	rb       *ring.Buffer
	maxFrame int
}

// NewDecoder maxFrame 为单帧帧体上限（压缩前的线上长度）
func NewDecoder(maxFrame int) *Decoder {
	if maxFrame <= 0 || maxFrame > MaxBodyLen-HeaderSize {
		maxFrame = 16 << 20
	}
	return &Decoder{
		rb:       ring.New(4<<10, 2*(maxFrame+HeaderSize)),
		maxFrame: maxFrame,
	}
}

// Buffered 返回尚未切出的字节数
func (d *Decoder) Buffered() int { return d.rb.Len() }

// Feed 追加收到的字节
func (d *Decoder) Feed(p []byte) error {
	_, err := d.rb.Write(p)
	return err
}

// Next 返回下一帧的帧体；数据不足时 ok=false。
// 出错后缓冲区被清空，调用方应视为流已损坏。
func (d *Decoder) Next() (payload []byte, ok bool, _ error) {
	if d.rb.Len() < HeaderSize {
		return nil, false, nil
	}
	length, compressed, err := ParseHeader(d.rb.Peek(HeaderSize))
	if err != nil {
		return nil, false, err
	}
	if length > d.maxFrame {
		d.rb.Reset()
		return nil, false, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, d.maxFrame)
	}
	total := HeaderSize + length
	if d.rb.Len() < total {
		return nil, false, nil
	}
	body := append([]byte(nil), d.rb.Peek(total)[HeaderSize:]...)
	d.rb.Discard(total)
	if !compressed {
		return body, true, nil
	}
	out, err := decompress(body)
	if err != nil {
		d.rb.Reset()
		return nil, false, fmt.Errorf("protocol: decompress: %w", err)
	}
	return out, true, nil
}
