package webgpu

// WGSL compute shaders, embedded as string constants. Each shader writes one
// output element per invocation and reads its sizes from a uniform buffer.

// workgroupSize is the number of threads per workgroup for 1D dispatches.
const workgroupSize = 256

// binaryShader builds an element-wise binary shader for the given operator.
func binaryShader(op string) string {
	return `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] ` + op + ` b[idx];
    }
}
`
}

// scalarShader builds an element-wise scalar shader for the given operator.
// The scalar travels in the uniform buffer next to the element count.
func scalarShader(op string) string {
	return `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    value: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = input[idx] ` + op + ` params.value;
    }
}
`
}

// biasAddShader adds a per-channel bias to an NCHW tensor:
// result[n,c,y,x] = input[n,c,y,x] + bias[c].
const biasAddShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> bias: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    channels: u32,
    spatial: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let c = (idx / params.spatial) % params.channels;
        result[idx] = input[idx] + bias[c];
    }
}
`

// matmulShader computes C = A @ B with A [M, K], B [K, N], C [M, N].
// One invocation per output element, 16x16 tiles per workgroup.
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + a[row * params.K + k] * b[k * params.N + col];
    }
    result[row * params.N + col] = sum;
}
`

// conv2dShader computes a grouped 2D convolution or cross-correlation.
// Input is [N, Cin, H, W], kernel [Cout, Cin/groups, Kh, Kw], output
// [N, Cout, outH, outW]. flip selects convolution (1, kernel reversed) vs
// cross-correlation (0). One invocation per output element.
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    batch: u32,
    cin: u32,
    h: u32,
    w: u32,
    cout: u32,
    kh: u32,
    kw: u32,
    out_h: u32,
    out_w: u32,
    stride_h: u32,
    stride_w: u32,
    dil_h: u32,
    dil_w: u32,
    pad_top: u32,
    pad_left: u32,
    groups: u32,
    flip: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.cout * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let ox = idx % params.out_w;
    let oy = (idx / params.out_w) % params.out_h;
    let oc = (idx / (params.out_w * params.out_h)) % params.cout;
    let n = idx / (params.out_w * params.out_h * params.cout);

    let cin_per_group = params.cin / params.groups;
    let cout_per_group = params.cout / params.groups;
    let group = oc / cout_per_group;

    var sum: f32 = 0.0;
    for (var ic: u32 = 0u; ic < cin_per_group; ic = ic + 1u) {
        for (var ky: u32 = 0u; ky < params.kh; ky = ky + 1u) {
            for (var kx: u32 = 0u; kx < params.kw; kx = kx + 1u) {
                let iy = i32(oy * params.stride_h + ky * params.dil_h) - i32(params.pad_top);
                let ix = i32(ox * params.stride_w + kx * params.dil_w) - i32(params.pad_left);
                if (iy < 0 || iy >= i32(params.h) || ix < 0 || ix >= i32(params.w)) {
                    continue;
                }
                var wy = ky;
                var wx = kx;
                if (params.flip != 0u) {
                    wy = params.kh - 1u - ky;
                    wx = params.kw - 1u - kx;
                }
                let in_idx = ((n * params.cin + group * cin_per_group + ic) * params.h + u32(iy)) * params.w + u32(ix);
                let k_idx = ((oc * cin_per_group + ic) * params.kh + wy) * params.kw + wx;
                sum = sum + input[in_idx] * kernel[k_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// convTranspose2dShader computes a 2D transposed convolution in gather form:
// an output cell sums every input cell whose scattered kernel footprint
// covers it. Input is [N, Cin, H, W], kernel [Cin, Cout, Kh, Kw], output
// [N, Cout, outH, outW].
const convTranspose2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    batch: u32,
    cin: u32,
    h: u32,
    w: u32,
    cout: u32,
    kh: u32,
    kw: u32,
    out_h: u32,
    out_w: u32,
    stride_h: u32,
    stride_w: u32,
    dil_h: u32,
    dil_w: u32,
    pad_top: u32,
    pad_left: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.cout * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let ox = idx % params.out_w;
    let oy = (idx / params.out_w) % params.out_h;
    let oc = (idx / (params.out_w * params.out_h)) % params.cout;
    let n = idx / (params.out_w * params.out_h * params.cout);

    var sum: f32 = 0.0;
    for (var ic: u32 = 0u; ic < params.cin; ic = ic + 1u) {
        for (var ky: u32 = 0u; ky < params.kh; ky = ky + 1u) {
            for (var kx: u32 = 0u; kx < params.kw; kx = kx + 1u) {
                let sy = i32(oy + params.pad_top) - i32(ky * params.dil_h);
                let sx = i32(ox + params.pad_left) - i32(kx * params.dil_w);
                if (sy < 0 || sx < 0) {
                    continue;
                }
                if (u32(sy) % params.stride_h != 0u || u32(sx) % params.stride_w != 0u) {
                    continue;
                }
                let iy = u32(sy) / params.stride_h;
                let ix = u32(sx) / params.stride_w;
                if (iy >= params.h || ix >= params.w) {
                    continue;
                }
                let in_idx = ((n * params.cin + ic) * params.h + iy) * params.w + ix;
                let k_idx = ((ic * params.cout + oc) * params.kh + ky) * params.kw + kx;
                sum = sum + input[in_idx] * kernel[k_idx];
            }
        }
    }
    result[idx] = sum;
}
`

// poolShaderParams is shared by the two pooling shaders.
const poolShaderParams = `
struct Params {
    batch: u32,
    channels: u32,
    h: u32,
    w: u32,
    out_h: u32,
    out_w: u32,
    win_h: u32,
    win_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_top: u32,
    pad_left: u32,
}
@group(0) @binding(2) var<uniform> params: Params;
`

// maxPool2dShader takes the maximum over each window, skipping padded cells.
const maxPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
` + poolShaderParams + `
@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.channels * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let ox = idx % params.out_w;
    let oy = (idx / params.out_w) % params.out_h;
    let c = (idx / (params.out_w * params.out_h)) % params.channels;
    let n = idx / (params.out_w * params.out_h * params.channels);

    var best: f32 = 0.0;
    var seen: bool = false;
    for (var ky: u32 = 0u; ky < params.win_h; ky = ky + 1u) {
        for (var kx: u32 = 0u; kx < params.win_w; kx = kx + 1u) {
            let iy = i32(oy * params.stride_h + ky) - i32(params.pad_top);
            let ix = i32(ox * params.stride_w + kx) - i32(params.pad_left);
            if (iy < 0 || iy >= i32(params.h) || ix < 0 || ix >= i32(params.w)) {
                continue;
            }
            let v = input[((n * params.channels + c) * params.h + u32(iy)) * params.w + u32(ix)];
            if (!seen || v > best) {
                best = v;
                seen = true;
            }
        }
    }
    result[idx] = best;
}
`

// meanPool2dShader averages each window; the divisor is the full window size,
// so padded cells count as zeros.
const meanPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;
` + poolShaderParams + `
@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.channels * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let ox = idx % params.out_w;
    let oy = (idx / params.out_w) % params.out_h;
    let c = (idx / (params.out_w * params.out_h)) % params.channels;
    let n = idx / (params.out_w * params.out_h * params.channels);

    var sum: f32 = 0.0;
    for (var ky: u32 = 0u; ky < params.win_h; ky = ky + 1u) {
        for (var kx: u32 = 0u; kx < params.win_w; kx = kx + 1u) {
            let iy = i32(oy * params.stride_h + ky) - i32(params.pad_top);
            let ix = i32(ox * params.stride_w + kx) - i32(params.pad_left);
            if (iy < 0 || iy >= i32(params.h) || ix < 0 || ix >= i32(params.w)) {
                continue;
            }
            sum = sum + input[((n * params.channels + c) * params.h + u32(iy)) * params.w + u32(ix)];
        }
    }
    result[idx] = sum / f32(params.win_h * params.win_w);
}
`
