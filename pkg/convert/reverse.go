package convert

import (
	"github.com/pion/biplanar/pkg/colormatrix"
	"github.com/pion/biplanar/pkg/compute"
)

// ReverseKernelName identifies the biplanar to BGRA kernel.
const ReverseKernelName = "ycbcr420_to_bgra"

// Binding slots of the reverse kernel. Params follow the surfaces.
const (
	ReverseBindingLuma = iota
	ReverseBindingChroma
	ReverseBindingOutput
	ReverseBindingParams
)

// ReverseParamCount is the length of the slice built by ReverseParams.
const ReverseParamCount = 16

// ReverseParams packs the kernel parameters: width, height, the 9 inverse
// matrix entries row by row, the 3 offsets and 2 reserved zeros.
func ReverseParams(p *colormatrix.Profile, width, height int) []int32 {
	inv := p.Inverse()
	params := make([]int32, 0, ReverseParamCount)
	params = append(params, int32(width), int32(height))
	params = append(params, inv.Params()...)
	return append(params, 0, 0)
}

// ReverseSource returns the reverse kernel for every device type.
func ReverseSource() compute.KernelSource {
	return compute.KernelSource{
		Name: ReverseKernelName,
		WGSL: reverseWGSL,
		Func: reverseWorkItem,
	}
}

func inverseRow(p []int32, i int, y, cb, cr int32) uint8 {
	m := p[2+3*i : 5+3*i]
	v := (m[0]*y + m[1]*cb + m[2]*cr + p[11+i] + 1<<(colormatrix.Shift-1)) >> colormatrix.Shift
	return colormatrix.Clamp8(v)
}

// reverseWorkItem reconstructs one BGRA pixel. Chroma is upsampled by
// nearest neighbour.
func reverseWorkItem(x, y int, args *compute.Args) {
	p := args.Params
	if x >= int(p[0]) || y >= int(p[1]) {
		return
	}
	luma := args.Surfaces[ReverseBindingLuma]
	chroma := args.Surfaces[ReverseBindingChroma]
	out := args.Surfaces[ReverseBindingOutput]

	yv := int32(luma.Pix[y*luma.Stride+x])
	c := chroma.Pix[(y/2)*chroma.Stride+(x/2)*2:]
	cb, cr := int32(c[0]), int32(c[1])

	o := out.Pix[y*out.Stride+x*4:]
	o[0] = inverseRow(p, 2, yv, cb, cr)
	o[1] = inverseRow(p, 1, yv, cb, cr)
	o[2] = inverseRow(p, 0, yv, cb, cr)
	o[3] = 0xFF
}

// Surfaces are storage buffers of tightly packed rows. Byte planes are read
// out of u32 words; each output pixel is one little-endian u32 B, G, R, A.
const reverseWGSL = `
@group(0) @binding(0) var<storage, read> luma : array<u32>;
@group(0) @binding(1) var<storage, read> chroma : array<u32>;
@group(0) @binding(2) var<storage, read_write> out : array<u32>;
@group(0) @binding(3) var<storage, read> params : array<i32, 16>;

fn luma_at(i: u32) -> i32 {
	return i32((luma[i >> 2u] >> ((i & 3u) * 8u)) & 0xFFu);
}

fn chroma_at(i: u32) -> i32 {
	return i32((chroma[i >> 2u] >> ((i & 3u) * 8u)) & 0xFFu);
}

fn inverse_row(i: u32, y: i32, cb: i32, cr: i32) -> u32 {
	let base = 2u + 3u * i;
	let v = (params[base] * y + params[base + 1u] * cb + params[base + 2u] * cr + params[11u + i] + 32768) >> 16u;
	return u32(clamp(v, 0, 255));
}

@compute @workgroup_size(WG_X, WG_Y, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	let width = u32(params[0]);
	let height = u32(params[1]);
	if (gid.x >= width || gid.y >= height) {
		return;
	}

	let x = gid.x;
	let y = gid.y;
	let cw = (width + 1u) / 2u;

	let yv = luma_at(y * width + x);
	let ci = ((y / 2u) * cw + x / 2u) * 2u;
	let cb = chroma_at(ci);
	let cr = chroma_at(ci + 1u);

	let r = inverse_row(0u, yv, cb, cr);
	let g = inverse_row(1u, yv, cb, cr);
	let b = inverse_row(2u, yv, cb, cr);
	out[y * width + x] = b | (g << 8u) | (r << 16u) | (255u << 24u);
}
`
